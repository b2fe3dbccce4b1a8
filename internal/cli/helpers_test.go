package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/heaplab/internal/engine"
	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/recorder"
	"github.com/roach88/heaplab/internal/store"
	"github.com/roach88/heaplab/internal/testutil"
)

// fullSortActions takes [2,1] from the empty heap through submission.
// Recorded: 11 actions plus InitHeapify and InitSort.
var fullSortActions = []ir.ActionKind{
	ir.ActionAddNode,
	ir.ActionIncrementIndex,
	ir.ActionAddNode,
	ir.ActionSwapWithParent,
	ir.ActionContinue,
	ir.ActionConfirmContinue,
	ir.ActionSwapRootAndEnd,
	ir.ActionPushEndAndDelete,
	ir.ActionPushEndAndDelete,
	ir.ActionSubmit,
	ir.ActionConfirmSubmit,
}

func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "heaplab.db")
}

// seedRun records a run into the database at path and returns the number
// of transitions written.
func seedRun(t *testing.T, path, runID string, array []int, actions ...ir.ActionKind) int64 {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	sink := recorder.NewStoreSink(st, testutil.FixedTime(testutil.Epoch))
	require.NoError(t, sink.StartRun(ctx, ir.Run{
		ID:        runID,
		UserID:    "learner",
		MachineID: engine.DefaultMachineID,
	}))

	exp := engine.New(runID, array,
		engine.WithRecorder(sink),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithNow(testutil.NewSteppingTime().Now),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	exp.Start(ctx)
	for _, a := range actions {
		_, err := exp.Dispatch(ctx, a)
		require.NoError(t, err, "dispatch %s", a)
	}
	return exp.Seq()
}

// executeRoot runs the full command tree with args and returns stdout.
func executeRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
