package recorder

import (
	"sync"

	"github.com/roach88/heaplab/internal/ir"
)

type eventType int

const (
	eventStart eventType = iota + 1
	eventTransition
	eventCompletion
)

// event is one queued delivery. Exactly one payload field is set.
type event struct {
	Type       eventType
	Run        *ir.Run
	Transition *ir.Transition
	Completion *ir.Completion
}

// eventQueue is a thread-safe FIFO queue.
//
// A limit of 0 leaves it unbounded. The signal channel (buffered, size 1)
// lets the consumer wait with a select on its context.
type eventQueue struct {
	mu     sync.Mutex
	events []event
	limit  int
	closed bool
	signal chan struct{}
}

func newEventQueue(limit int) *eventQueue {
	return &eventQueue{
		events: make([]event, 0, 64),
		limit:  limit,
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds e to the back of the queue.
func (q *eventQueue) Enqueue(e event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if q.limit > 0 && len(q.events) >= q.limit {
		return ErrQueueFull
	}

	q.events = append(q.events, e)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event{}, false
	}

	e := q.events[0]
	// Clear the slot so the backing array does not pin the payload.
	q.events[0] = event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that fires when events may be available. It is
// closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drained reports whether the queue is closed and empty.
func (q *eventQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}

// Close stops further enqueues and wakes the consumer.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

func (t eventType) String() string {
	switch t {
	case eventStart:
		return "start"
	case eventTransition:
		return "transition"
	case eventCompletion:
		return "completion"
	default:
		return "unknown"
	}
}
