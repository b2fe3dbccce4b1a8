package recorder

import (
	"context"
	"log/slog"

	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/metrics"
)

// Async queues deliveries for a single consumer loop so the session never
// waits on a sink.
//
// Record, Complete and StartRun may be called from any goroutine. Run must
// be called exactly once. Close stops intake; Run returns after the queue
// is drained.
type Async struct {
	sink    Recorder
	name    string
	queue   *eventQueue
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// AsyncOption configures an Async recorder.
type AsyncOption func(*Async)

// WithQueueLimit bounds the queue. 0 is unbounded.
func WithQueueLimit(n int) AsyncOption {
	return func(a *Async) { a.queue.limit = n }
}

// WithAsyncMetrics sets the metrics sink.
func WithAsyncMetrics(m *metrics.Metrics) AsyncOption {
	return func(a *Async) { a.metrics = m }
}

// WithAsyncLogger sets the logger.
func WithAsyncLogger(l *slog.Logger) AsyncOption {
	return func(a *Async) { a.logger = l }
}

// WithSinkName sets the label used for failure metrics.
func WithSinkName(name string) AsyncOption {
	return func(a *Async) { a.name = name }
}

// NewAsync wraps sink.
func NewAsync(sink Recorder, opts ...AsyncOption) *Async {
	a := &Async{
		sink:   sink,
		name:   "async",
		queue:  newEventQueue(0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record enqueues t.
func (a *Async) Record(_ context.Context, t ir.Transition) error {
	return a.enqueue(event{Type: eventTransition, Transition: &t})
}

// Complete enqueues c.
func (a *Async) Complete(_ context.Context, c ir.Completion) error {
	return a.enqueue(event{Type: eventCompletion, Completion: &c})
}

// StartRun enqueues the run registration.
func (a *Async) StartRun(_ context.Context, run ir.Run) error {
	return a.enqueue(event{Type: eventStart, Run: &run})
}

func (a *Async) enqueue(e event) error {
	if err := a.queue.Enqueue(e); err != nil {
		a.metrics.ObserveRecorderFailure(a.name)
		return err
	}
	a.metrics.SetQueueDepth(a.queue.Len())
	return nil
}

// Pending returns the number of queued deliveries.
func (a *Async) Pending() int {
	return a.queue.Len()
}

// Close stops intake. Safe to call more than once.
func (a *Async) Close() {
	a.queue.Close()
}

// Run delivers queued events until Close has been called and the queue is
// empty, or ctx is cancelled. Sink failures are logged and counted; they
// never stop the loop.
func (a *Async) Run(ctx context.Context) error {
	for {
		if e, ok := a.queue.TryDequeue(); ok {
			a.metrics.SetQueueDepth(a.queue.Len())
			a.deliver(ctx, e)
			continue
		}
		if a.queue.Drained() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.queue.Wait():
		}
	}
}

func (a *Async) deliver(ctx context.Context, e event) {
	var err error
	switch e.Type {
	case eventStart:
		err = StartRun(ctx, a.sink, *e.Run)
	case eventTransition:
		err = a.sink.Record(ctx, *e.Transition)
	case eventCompletion:
		if c, ok := a.sink.(Completer); ok {
			err = c.Complete(ctx, *e.Completion)
		}
	}
	if err != nil {
		a.metrics.ObserveRecorderFailure(a.name)
		a.logger.Warn("recorder delivery failed",
			"sink", a.name,
			"event", e.Type,
			"error", err,
		)
	}
}
