package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/heaplab/internal/engine"
	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/recorder"
	"github.com/roach88/heaplab/internal/store"
	"github.com/roach88/heaplab/internal/testutil"
)

// Harness executes scenarios against the real engine.
type Harness struct {
	store  *store.Store
	exp    *engine.Experiment
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock, a stepping time source and a fixed run id. Steps are dispatched
// through a StoreSink, the trace is read back from the store and replayed
// to check it reproduces.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	runID := testutil.NewFixedRunIDGenerator(scenario.RunID).Generate()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sink := recorder.NewStoreSink(st, testutil.FixedTime(testutil.Epoch))
	run := ir.Run{ID: runID, UserID: "harness", MachineID: engine.DefaultMachineID}
	if err := sink.StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	h := &Harness{
		store: st,
		exp: engine.New(runID, scenario.Array,
			engine.WithRecorder(sink),
			engine.WithClock(testutil.NewDeterministicClock()),
			engine.WithNow(testutil.NewSteppingTime().Now),
			engine.WithLogger(logger),
			engine.WithHistoryLimit(scenario.HistoryLimit),
			engine.WithUserID(run.UserID),
		),
		logger: logger,
	}
	h.exp.Start(ctx)

	result := NewResult()
	h.executeSteps(ctx, scenario.Steps, result)

	if err := h.collectTrace(ctx, runID, result); err != nil {
		return nil, err
	}
	h.collectFinal(result)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSteps dispatches each step and compares its outcome.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		expect := step.Expect
		if expect == "" {
			expect = OutcomeOK
		}

		_, err := h.exp.Dispatch(ctx, ir.ActionKind(step.Action))
		outcome := outcomeOf(err)
		result.Outcomes = append(result.Outcomes, StepOutcome{
			Action:  step.Action,
			Expect:  expect,
			Outcome: outcome,
			Prompt:  h.exp.Prompt(),
		})

		if outcome != expect {
			result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %s", i, step.Action, expect, outcome))
		}
		h.logger.Debug("step executed",
			"step", i,
			"action", step.Action,
			"outcome", outcome,
		)
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if kind, ok := engine.KindOf(err); ok {
		return string(kind)
	}
	switch {
	case errors.Is(err, engine.ErrStageComplete):
		return OutcomeStageComplete
	case errors.Is(err, engine.ErrUnknownAction):
		return OutcomeUnknownAction
	case errors.Is(err, engine.ErrNoPendingConfirmation):
		return OutcomeNoPendingConfirmation
	}
	return err.Error()
}

// collectTrace reads the run back from the store and replays it.
func (h *Harness) collectTrace(ctx context.Context, runID string, result *Result) error {
	trs, err := h.store.ReadTransitions(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}
	for _, t := range trs {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:       t.Seq,
			Stage:     t.Stage,
			Action:    t.Action,
			Timestamp: t.Timestamp,
			Pre:       t.PreState,
			Post:      t.PostState,
		})
	}

	replay, err := engine.Replay(ctx, trs)
	if err != nil {
		result.AddError(fmt.Sprintf("replay: %v", err))
		return nil
	}
	for _, m := range replay.Mismatches {
		result.AddError(fmt.Sprintf("replay seq %d (%s): %s", m.Seq, m.Action, m.Reason))
	}
	return nil
}

func (h *Harness) collectFinal(result *Result) {
	result.Stage = h.exp.ActiveStage()
	result.Submitted = h.exp.Submitted()
	result.Heapify = h.exp.HeapifyState()
	if s, ok := h.exp.SortState(); ok {
		result.Sort = &s
	}
	result.Undo, result.Redo = h.exp.HistoryDepth()
}

func violationKinds() []string {
	kinds := engine.AllViolationKinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
