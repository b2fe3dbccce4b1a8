package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/heaplab/internal/ir"
)

// Replay re-executes a recorded run and checks that it reproduces the
// recorded trace.
//
// # Determinism
//
// Transitions are content-addressed: the id hashes run id, seq, stage,
// action and both states. Engines are pure and the clock is logical, so
// dispatching the recorded actions in seq order from the same bootstrap
// array yields the same ids. Rejected actions are never recorded and so
// are not replayed; they never changed state.
//
// The bootstrap array is read from the post-state of the leading
// InitHeapify transition. InitSort transitions are produced by
// ConfirmContinue and are compared, not dispatched.

// Mismatch is one recorded transition that replay did not reproduce.
type Mismatch struct {
	Seq    int64
	Action ir.ActionKind
	Reason string
	Want   ir.Transition
	Got    ir.Transition
}

// ReplayResult summarises one replayed run.
type ReplayResult struct {
	RunID      string
	Checked    int
	Mismatches []Mismatch
	Submitted  bool
}

// OK reports whether every recorded transition was reproduced.
func (r ReplayResult) OK() bool { return len(r.Mismatches) == 0 }

// captureRecorder keeps transitions in memory.
type captureRecorder struct {
	out []ir.Transition
}

func (c *captureRecorder) Record(_ context.Context, t ir.Transition) error {
	c.out = append(c.out, t)
	return nil
}

// Replay rebuilds the experiment of one run from its recorded transitions,
// which must be in seq order.
func Replay(ctx context.Context, transitions []ir.Transition) (ReplayResult, error) {
	if len(transitions) == 0 {
		return ReplayResult{}, fmt.Errorf("replay: no transitions")
	}
	first := transitions[0]
	if first.Action != ir.ActionInitHeapify {
		return ReplayResult{}, fmt.Errorf("replay run %s: first transition is %s, want %s",
			first.RunID, first.Action, ir.ActionInitHeapify)
	}
	initial, err := ir.HeapifyStateFromIR(first.PostState)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay run %s: bootstrap state: %w", first.RunID, err)
	}

	capture := &captureRecorder{}
	exp := New(first.RunID, initial.Array,
		WithRecorder(capture),
		WithClock(NewClockAt(first.Seq-1)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	exp.Start(ctx)

	for _, t := range transitions[1:] {
		if t.Action == ir.ActionInitSort {
			continue
		}
		if _, err := exp.Dispatch(ctx, t.Action); err != nil {
			return ReplayResult{}, fmt.Errorf("replay run %s seq %d: %s: %w", t.RunID, t.Seq, t.Action, err)
		}
	}

	result := ReplayResult{RunID: first.RunID, Submitted: exp.Submitted()}
	for i, want := range transitions {
		result.Checked++
		if i >= len(capture.out) {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq: want.Seq, Action: want.Action, Reason: "not reproduced", Want: want,
			})
			continue
		}
		got := capture.out[i]
		if reason := compareTransition(want, got); reason != "" {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq: want.Seq, Action: want.Action, Reason: reason, Want: want, Got: got,
			})
		}
	}
	for _, extra := range capture.out[min(len(transitions), len(capture.out)):] {
		result.Mismatches = append(result.Mismatches, Mismatch{
			Seq: extra.Seq, Action: extra.Action, Reason: "not recorded", Got: extra,
		})
	}
	return result, nil
}

func compareTransition(want, got ir.Transition) string {
	switch {
	case want.Seq != got.Seq:
		return fmt.Sprintf("seq %d, replayed %d", want.Seq, got.Seq)
	case want.Action != got.Action:
		return fmt.Sprintf("action %s, replayed %s", want.Action, got.Action)
	case want.Stage != got.Stage:
		return fmt.Sprintf("stage %s, replayed %s", want.Stage, got.Stage)
	case want.ID != got.ID:
		return "state differs"
	}
	return ""
}
