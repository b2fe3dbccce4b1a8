package engine

// Snapshot is a state that can produce a deep copy of itself.
type Snapshot[S any] interface {
	Clone() S
}

// History is a linear undo/redo ledger of state snapshots.
//
// past holds earlier states, most recent last. future holds undone states
// with the next one to redo last. Every snapshot is a deep copy taken on the
// way in and handed out as a fresh copy on the way out, so nothing stored
// here aliases the caller's current state.
//
// History is not safe for concurrent use; a session owns it exclusively.
type History[S Snapshot[S]] struct {
	past   []S
	future []S

	// limit caps len(past); the oldest entries are evicted. 0 is unbounded.
	limit int
}

// NewHistory creates an empty history. limit <= 0 means unbounded.
func NewHistory[S Snapshot[S]](limit int) *History[S] {
	if limit < 0 {
		limit = 0
	}
	return &History[S]{limit: limit}
}

// Commit records old as the state before a new action and discards every
// redoable state.
func (h *History[S]) Commit(old S) {
	h.pushPast(old.Clone())
	h.future = nil
}

// Undo returns the most recent past state and saves current as the next
// state to redo. Fails with NoHistory when there is nothing to undo.
func (h *History[S]) Undo(current S) (S, error) {
	if len(h.past) == 0 {
		var zero S
		return zero, violation(KindNoHistory)
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current.Clone())
	return prev.Clone(), nil
}

// Redo returns the next undone state and saves current onto the past.
// Fails with NoFuture when there is nothing to redo.
func (h *History[S]) Redo(current S) (S, error) {
	if len(h.future) == 0 {
		var zero S
		return zero, violation(KindNoFuture)
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.pushPast(current.Clone())
	return next.Clone(), nil
}

// Reset clears both stacks.
func (h *History[S]) Reset() {
	h.past = nil
	h.future = nil
}

func (h *History[S]) pushPast(s S) {
	h.past = append(h.past, s)
	if h.limit > 0 && len(h.past) > h.limit {
		excess := len(h.past) - h.limit
		h.past = h.past[excess:]
	}
}

// CanUndo returns true if there are states to undo.
func (h *History[S]) CanUndo() bool { return len(h.past) > 0 }

// CanRedo returns true if there are states to redo.
func (h *History[S]) CanRedo() bool { return len(h.future) > 0 }

// UndoCount returns len(past).
func (h *History[S]) UndoCount() int { return len(h.past) }

// RedoCount returns len(future).
func (h *History[S]) RedoCount() int { return len(h.future) }
