package cli

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/heaplab/internal/config"
	"github.com/roach88/heaplab/internal/engine"
	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/store"
)

func actionScript(actions []ir.ActionKind) string {
	var b strings.Builder
	for _, a := range actions {
		b.WriteString(string(a))
		b.WriteByte('\n')
	}
	return b.String()
}

func TestPlay_FullSessionIsRecorded(t *testing.T) {
	dbPath := testDBPath(t)

	out, err := executeRoot(t, actionScript(fullSortActions),
		"play", "--array", "2,1", "--db", dbPath, "--user", "u1")
	require.NoError(t, err)

	assert.Contains(t, out, "Swapped child node with parent node.")
	assert.Contains(t, out, "== sort")
	assert.Contains(t, out, "13 transitions recorded, sorted [1 2]")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "u1", runs[0].UserID)
	assert.Equal(t, engine.DefaultMachineID, runs[0].MachineID)
	assert.True(t, runs[0].Completed)

	transitions, err := st.ReadTransitions(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, transitions, 13)
	assert.Equal(t, ir.ActionInitHeapify, transitions[0].Action)
	assert.Equal(t, ir.ActionInitSort, transitions[7].Action)
	assert.Equal(t, ir.ActionConfirmSubmit, transitions[12].Action)

	replayed, err := engine.Replay(context.Background(), transitions)
	require.NoError(t, err)
	assert.True(t, replayed.OK(), "mismatches: %v", replayed.Mismatches)
}

func TestPlay_CommandsAndRejections(t *testing.T) {
	dbPath := testDBPath(t)
	script := "\nhelp\nbogus\nswapwithparent\naddnode\nshow\nquit\nAddNode\n"

	out, err := executeRoot(t, script, "play", "--array", "3,1,2", "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "actions: Undo, ")
	assert.Contains(t, out, `unknown action "bogus" (type help)`)
	assert.Contains(t, out, "Child node could not be swapped with parent node.")
	assert.Contains(t, out, "Element added to heap.")
	assert.Contains(t, out, "2 transitions recorded")
	assert.NotContains(t, out, "sorted")
}

func TestPlay_EndOfInputStops(t *testing.T) {
	out, err := executeRoot(t, "AddNode", "play", "--array", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "2 transitions recorded")
}

func TestPlay_JSONSummary(t *testing.T) {
	out, err := executeRoot(t, actionScript(fullSortActions), "play", "--array", "2,1", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   PlaySummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(13), resp.Data.Transitions)
	assert.True(t, resp.Data.Submitted)
	assert.Equal(t, []int{1, 2}, resp.Data.Sorted)
	assert.NotEmpty(t, resp.Data.RunID)
}

func TestPlay_UnreachableRemoteIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	remote := srv.URL
	srv.Close()
	dbPath := testDBPath(t)

	out, err := executeRoot(t, actionScript(fullSortActions),
		"play", "--array", "2,1", "--db", dbPath, "--remote", remote)
	require.NoError(t, err)
	assert.Contains(t, out, "13 transitions recorded, sorted [1 2]")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1, "local sinks still receive the run")
	assert.True(t, runs[0].Completed)
}

func TestPlay_RejectsInvalidArray(t *testing.T) {
	_, err := executeRoot(t, "", "play", "--array", "1,1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to build array")
}

func TestBootstrapArray(t *testing.T) {
	cfg := config.Default()
	cfg.Experiment.Seed = 42

	a, err := bootstrapArray(cfg, nil)
	require.NoError(t, err)
	b, err := bootstrapArray(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed, same array")
	assert.Len(t, a, 6)

	want, err := engine.RandomArray(rand.New(rand.NewPCG(42, 42)), cfg.ArraySpec())
	require.NoError(t, err)
	assert.Equal(t, want, a)

	supplied, err := bootstrapArray(cfg, []int{9, 0, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{9, 0, 4}, supplied)

	_, err = bootstrapArray(cfg, []int{11})
	assert.Error(t, err, "values outside [min,max] are rejected")
}

func TestBootstrapArray_WideConfiguredRange(t *testing.T) {
	cfg := config.Default()
	cfg.Experiment.Seed = 9
	cfg.Experiment.MinValue = 1
	cfg.Experiment.MaxValue = math.MaxInt
	require.NoError(t, cfg.Validate())

	arr, err := bootstrapArray(cfg, nil)
	require.NoError(t, err)
	assert.Len(t, arr, 6)
	assert.NoError(t, engine.ValidateArray(arr, cfg.ArraySpec()))
}

func TestMatchAction(t *testing.T) {
	kind, ok := matchAction("pushenddelete")
	assert.False(t, ok)
	assert.Empty(t, kind)

	kind, ok = matchAction("PUSHENDANDDELETE")
	assert.True(t, ok)
	assert.Equal(t, ir.ActionPushEndAndDelete, kind)
}
