package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/store"
)

// forgeTransition appends a transition the engine would never produce.
func forgeTransition(t *testing.T, path string, tr ir.Transition) {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.WriteTransition(context.Background(), tr))
}

func TestReplay_Empty(t *testing.T) {
	out, err := executeRoot(t, "", "replay", "--db", testDBPath(t))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in database.")
}

func TestReplay_AllReproduced(t *testing.T) {
	dbPath := testDBPath(t)
	seedRun(t, dbPath, "run-a", []int{2, 1}, fullSortActions...)
	seedRun(t, dbPath, "run-b", []int{3, 1, 2}, "AddNode", "IncrementIndex", "Undo", "Redo", "AddNode", "SwapWithParent")

	out, err := executeRoot(t, "", "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 run(s)")
	assert.Contains(t, out, "✓ Run: run-a")
	assert.Contains(t, out, "Transitions: 13")
	assert.Contains(t, out, "✓ All runs reproduced")
}

func TestReplay_DetectsForgedState(t *testing.T) {
	dbPath := testDBPath(t)
	seedRun(t, dbPath, "run-f", []int{2, 1}, "AddNode")
	forgeTransition(t, dbPath, ir.Transition{
		RunID:     "run-f",
		Seq:       3,
		Stage:     ir.StageHeapify,
		Action:    ir.ActionIncrementIndex,
		Timestamp: 1,
		PreState:  ir.Object{},
		PostState: ir.Object{"index": ir.Int(9)},
	})

	out, err := executeRoot(t, "", "replay", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Run: run-f")
	assert.Contains(t, out, "seq 3 IncrementIndex: state differs")
	assert.Contains(t, out, "✗ Replay verification failed")
}

func TestReplay_ReportsRejectedAction(t *testing.T) {
	dbPath := testDBPath(t)
	seedRun(t, dbPath, "run-r", []int{2, 1})
	forgeTransition(t, dbPath, ir.Transition{
		RunID:     "run-r",
		Seq:       2,
		Stage:     ir.StageHeapify,
		Action:    ir.ActionSwapWithParent,
		PreState:  ir.Object{},
		PostState: ir.Object{},
	})

	out, err := executeRoot(t, "", "replay", "--db", dbPath, "--run", "run-r", "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeReplayMismatch, resp.Error.Code)
	require.Len(t, resp.Data.Runs, 1)
	assert.False(t, resp.Data.Runs[0].Reproduced)
	assert.Contains(t, resp.Data.Runs[0].Error, "NoValidParent")
}

func TestReplay_JSONSuccess(t *testing.T) {
	dbPath := testDBPath(t)
	seedRun(t, dbPath, "run-a", []int{2, 1}, fullSortActions...)

	out, err := executeRoot(t, "", "replay", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllReproduced)
	require.Len(t, resp.Data.Runs, 1)
	assert.True(t, resp.Data.Runs[0].Submitted)
}
