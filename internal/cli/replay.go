package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/heaplab/internal/engine"
	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayMismatch is one recorded transition replay did not reproduce.
type ReplayMismatch struct {
	Seq    int64         `json:"seq"`
	Action ir.ActionKind `json:"action"`
	Reason string        `json:"reason"`
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID       string           `json:"run_id"`
	Transitions int              `json:"transitions"`
	Submitted   bool             `json:"submitted"`
	Reproduced  bool             `json:"reproduced"`
	Mismatches  []ReplayMismatch `json:"mismatches,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs          []ReplayRunResult `json:"runs"`
	TotalRuns     int               `json:"total_runs"`
	AllReproduced bool              `json:"all_reproduced"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute recorded runs and verify them",
		Long: `Replay recorded runs and check each transition is reproduced.

Every run is rebuilt from the array in its first transition; the recorded
actions are dispatched in seq order and each resulting transition id is
compared with the stored one. Ids hash both states, so any difference in
the heap, the index, the selection or the sorted output is reported.

Exit codes:
  0 - All runs reproduced
  1 - At least one run diverged
  2 - Command error (database not found, etc.)

Examples:
  heaplab replay --db ./heaplab.db
  heaplab replay --db ./heaplab.db --run 0190c7e4-...
  heaplab replay --db ./heaplab.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runIDs, err = listRunIDs(ctx, st, 0, false)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:          make([]ReplayRunResult, 0, len(runIDs)),
		TotalRuns:     len(runIDs),
		AllReproduced: true,
	}
	for _, id := range runIDs {
		runResult, err := replayRun(ctx, st, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", id), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Reproduced {
			result.AllReproduced = false
		}
	}

	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if out.JSON() {
		if result.AllReproduced {
			return out.Success(result)
		}
		if err := out.Failure(CodeReplayMismatch, "replay verification failed", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "replay verification failed")
	}

	return outputReplayText(cmd.OutOrStdout(), result, opts.Verbose)
}

// replayRun reads one run and replays it. Store errors are returned;
// divergence is reported in the result.
func replayRun(ctx context.Context, st *store.Store, runID string) (ReplayRunResult, error) {
	transitions, err := st.ReadTransitions(ctx, runID)
	if err != nil {
		return ReplayRunResult{}, err
	}
	res := ReplayRunResult{RunID: runID, Transitions: len(transitions)}
	if len(transitions) == 0 {
		// Nothing recorded yet: trivially reproduced.
		res.Reproduced = true
		return res, nil
	}

	replayed, err := engine.Replay(ctx, transitions)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	res.Submitted = replayed.Submitted
	res.Reproduced = replayed.OK()
	for _, m := range replayed.Mismatches {
		res.Mismatches = append(res.Mismatches, ReplayMismatch{Seq: m.Seq, Action: m.Action, Reason: m.Reason})
	}
	return res, nil
}

func outputReplayText(w io.Writer, result ReplayResult, verbose bool) error {
	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Reproduced {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunID)
		fmt.Fprintf(w, "  Transitions: %d\n", run.Transitions)
		if verbose {
			fmt.Fprintf(w, "  Submitted: %v\n", run.Submitted)
		}
		if run.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", run.Error)
		}
		for _, m := range run.Mismatches {
			fmt.Fprintf(w, "  seq %d %s: %s\n", m.Seq, m.Action, m.Reason)
		}
		fmt.Fprintln(w)
	}

	if result.AllReproduced {
		fmt.Fprintln(w, "✓ All runs reproduced")
		return nil
	}
	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay verification failed")
}
