package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/metrics"
	"github.com/roach88/heaplab/internal/testutil"
)

type memRecorder struct {
	transitions []ir.Transition
	completions []ir.Completion
	err         error
}

func (m *memRecorder) Record(_ context.Context, t ir.Transition) error {
	m.transitions = append(m.transitions, t)
	return m.err
}

func (m *memRecorder) Complete(_ context.Context, c ir.Completion) error {
	m.completions = append(m.completions, c)
	return m.err
}

func (m *memRecorder) actions() []ir.ActionKind {
	out := make([]ir.ActionKind, len(m.transitions))
	for i, t := range m.transitions {
		out[i] = t.Action
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExperiment(t *testing.T, array []int, rec *memRecorder) *Experiment {
	t.Helper()
	exp := New("run-1", array,
		WithRecorder(rec),
		WithClock(testutil.NewDeterministicClock()),
		WithNow(testutil.NewSteppingTime().Now),
		WithLogger(quietLogger()),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	exp.Start(context.Background())
	return exp
}

func dispatchAll(t *testing.T, exp *Experiment, kinds ...ir.ActionKind) {
	t.Helper()
	for _, k := range kinds {
		_, err := exp.Dispatch(context.Background(), k)
		require.NoError(t, err, "dispatch %s", k)
	}
}

func TestExperiment_FullSession(t *testing.T) {
	rec := &memRecorder{}
	exp := newTestExperiment(t, []int{5, 3, 8}, rec)

	dispatchAll(t, exp,
		ir.ActionAddNode,
		ir.ActionIncrementIndex, ir.ActionAddNode, ir.ActionSwapWithParent,
		ir.ActionIncrementIndex, ir.ActionAddNode,
		ir.ActionContinue, ir.ActionConfirmContinue,
	)
	assert.Equal(t, ir.StageSort, exp.ActiveStage())
	sortState, ok := exp.SortState()
	require.True(t, ok)
	assert.Equal(t, []int{3, 5, 8}, sortState.HeapData)
	assert.Equal(t, ir.Node(0), sortState.Node)

	for i := 0; i < 3; i++ {
		dispatchAll(t, exp, ir.ActionSwapRootAndEnd, ir.ActionPushEndAndDelete)
		if s, _ := exp.SortState(); len(s.HeapData) > 0 {
			dispatchAll(t, exp, ir.ActionHeapify)
		}
	}
	dispatchAll(t, exp, ir.ActionSubmit, ir.ActionConfirmSubmit)

	final, _ := exp.SortState()
	assert.Equal(t, []int{3, 5, 8}, final.FinalArray)
	assert.True(t, exp.Submitted())
	assert.Equal(t, "Submission confirmed!", exp.Prompt())

	_, err := exp.Dispatch(context.Background(), ir.ActionUndo)
	assert.ErrorIs(t, err, ErrStageComplete)
	assert.Equal(t, PromptSubmitted, exp.Prompt())

	require.Len(t, rec.completions, 2)
	assert.Equal(t, ir.StageHeapify, rec.completions[0].Stage)
	assert.Equal(t, []int{3, 5, 8}, rec.completions[0].HeapData)
	assert.True(t, rec.completions[1].Completed)

	acts := rec.actions()
	assert.Equal(t, ir.ActionInitHeapify, acts[0])
	assert.Contains(t, acts, ir.ActionInitSort)
	assert.Equal(t, ir.ActionConfirmSubmit, acts[len(acts)-1])
	for i, tr := range rec.transitions {
		assert.Equal(t, int64(i+1), tr.Seq, "seq is dense and ordered")
		assert.Len(t, tr.ID, 64)
	}
}

func TestExperiment_InitTransitionHasEmptyPreState(t *testing.T) {
	rec := &memRecorder{}
	newTestExperiment(t, []int{2, 1}, rec)

	require.Len(t, rec.transitions, 1)
	init := rec.transitions[0]
	assert.Equal(t, ir.ActionInitHeapify, init.Action)
	assert.Empty(t, init.PreState)
	assert.Equal(t, testutil.Epoch.UnixMilli(), init.Timestamp)
	got, err := ir.HeapifyStateFromIR(init.PostState)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, got.Array)
}

func TestExperiment_RejectionsAreNotRecorded(t *testing.T) {
	rec := &memRecorder{}
	exp := newTestExperiment(t, []int{2, 1}, rec)

	_, err := exp.Dispatch(context.Background(), ir.ActionUndo)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNoHistory, kind)
	assert.Equal(t, "Nothing to undo.", exp.Prompt())

	_, err = exp.Dispatch(context.Background(), ir.ActionHeapify)
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, PromptUnknownAction, exp.Prompt())

	assert.Len(t, rec.transitions, 1, "only InitHeapify")
	assert.Equal(t, int64(1), exp.Seq())
}

func TestExperiment_RecorderFailureDoesNotRollBack(t *testing.T) {
	rec := &memRecorder{err: errors.New("service unavailable")}
	exp := newTestExperiment(t, []int{2, 1}, rec)

	res, err := exp.Dispatch(context.Background(), ir.ActionAddNode)
	require.NoError(t, err)
	assert.Equal(t, ir.ActionAddNode, res.Action)
	assert.Equal(t, []int{2}, exp.HeapifyState().HeapData)
}

func TestExperiment_UndoRedoAreRecorded(t *testing.T) {
	rec := &memRecorder{}
	exp := newTestExperiment(t, []int{2, 1}, rec)

	dispatchAll(t, exp, ir.ActionAddNode, ir.ActionUndo, ir.ActionRedo, ir.ActionReset)
	assert.Equal(t, []ir.ActionKind{
		ir.ActionInitHeapify, ir.ActionAddNode, ir.ActionUndo, ir.ActionRedo, ir.ActionReset,
	}, rec.actions())

	undo := rec.transitions[2]
	assert.Equal(t, rec.transitions[1].PostState, undo.PreState)
	assert.Equal(t, rec.transitions[1].PreState, undo.PostState)
}

func TestExperiment_SortStageCannotUndoIntoHeapify(t *testing.T) {
	rec := &memRecorder{}
	exp := newTestExperiment(t, []int{2, 1}, rec)
	dispatchAll(t, exp, ir.ActionAddNode, ir.ActionContinue, ir.ActionConfirmContinue)

	_, err := exp.Dispatch(context.Background(), ir.ActionUndo)
	kind, _ := KindOf(err)
	assert.Equal(t, KindNoHistory, kind)
	assert.Equal(t, ir.StageSort, exp.ActiveStage())
}

func TestExperiment_EmptyHeapHandOver(t *testing.T) {
	rec := &memRecorder{}
	exp := newTestExperiment(t, []int{2, 1}, rec)
	dispatchAll(t, exp, ir.ActionContinue, ir.ActionConfirmContinue)

	s, ok := exp.SortState()
	require.True(t, ok)
	assert.Empty(t, s.HeapData)
	assert.False(t, s.Node.IsSet())

	_, err := exp.Dispatch(context.Background(), ir.ActionHeapify)
	kind, _ := KindOf(err)
	assert.Equal(t, KindEmptyHeap, kind)
}

func TestExperiment_NoRecorder(t *testing.T) {
	exp := New("run-1", []int{1, 2}, WithLogger(quietLogger()))
	res, err := exp.Dispatch(context.Background(), ir.ActionAddNode)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Transition.Seq, "Dispatch starts the run first")
	assert.Equal(t, DefaultMachineID, exp.MachineID())
}

func TestExperiment_ConfirmRequiresPendingQuestion(t *testing.T) {
	rec := &memRecorder{}
	exp := newTestExperiment(t, []int{2, 1}, rec)
	ctx := context.Background()

	_, err := exp.Dispatch(ctx, ir.ActionConfirmContinue)
	assert.ErrorIs(t, err, ErrNoPendingConfirmation)
	assert.False(t, IsPrecondition(err))
	assert.Equal(t, PromptNoPendingConfirmation, exp.Prompt())
	assert.Equal(t, ir.StageHeapify, exp.ActiveStage(), "no hand-over")

	dispatchAll(t, exp, ir.ActionAddNode, ir.ActionContinue, ir.ActionUndo)
	_, err = exp.Dispatch(ctx, ir.ActionConfirmContinue)
	assert.ErrorIs(t, err, ErrNoPendingConfirmation, "undo withdraws the question")

	dispatchAll(t, exp, ir.ActionContinue, ir.ActionConfirmContinue)
	require.Equal(t, ir.StageSort, exp.ActiveStage())

	_, err = exp.Dispatch(ctx, ir.ActionConfirmSubmit)
	assert.ErrorIs(t, err, ErrNoPendingConfirmation)
	assert.False(t, exp.Submitted())

	_, err = exp.Dispatch(ctx, ir.ActionCancelSubmit)
	assert.ErrorIs(t, err, ErrNoPendingConfirmation)

	dispatchAll(t, exp, ir.ActionSubmit, ir.ActionConfirmSubmit)
	assert.True(t, exp.Submitted())
	assert.NotContains(t, rec.actions()[:len(rec.actions())-2], ir.ActionConfirmSubmit)
}
