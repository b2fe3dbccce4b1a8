package recorder

import (
	"context"
	"errors"

	"github.com/roach88/heaplab/internal/engine"
	"github.com/roach88/heaplab/internal/ir"
)

// Recorder receives transitions.
type Recorder = engine.Recorder

// Completer receives stage completions.
type Completer = engine.Completer

// Starter is implemented by sinks that register a run before its first
// transition.
type Starter interface {
	StartRun(ctx context.Context, run ir.Run) error
}

// ErrClosed is returned when recording to a closed Async recorder.
var ErrClosed = errors.New("recorder closed")

// ErrQueueFull is returned when a bounded Async queue is at capacity.
var ErrQueueFull = errors.New("recorder queue full")

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, ir.Transition) error   { return nil }
func (Nop) Complete(context.Context, ir.Completion) error { return nil }
func (Nop) StartRun(context.Context, ir.Run) error        { return nil }

// StartRun registers run with r if it implements Starter.
func StartRun(ctx context.Context, r Recorder, run ir.Run) error {
	if s, ok := r.(Starter); ok {
		return s.StartRun(ctx, run)
	}
	return nil
}
