package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Action   string // optional - filter to specific action
}

// TraceEntry is one transition in the timeline.
type TraceEntry struct {
	Seq       int64         `json:"seq"`
	Stage     ir.StageName  `json:"stage"`
	Action    ir.ActionKind `json:"action"`
	Timestamp int64         `json:"timestamp"`
	ID        string        `json:"id"`
	Pre       ir.Object     `json:"pre"`
	Post      ir.Object     `json:"post"`
}

// TraceStats holds summary statistics for a run.
type TraceStats struct {
	Transitions int            `json:"transitions"`
	ByStage     map[string]int `json:"by_stage"`
	Undos       int            `json:"undos"`
	Redos       int            `json:"redos"`
	Resets      int            `json:"resets"`
	Completed   bool           `json:"completed"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      ir.Run       `json:"run"`
	Timeline []TraceEntry `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded timeline of a run",
		Long: `Show every recorded transition of one run in seq order.

With --verbose each entry also prints its pre- and post-state in
canonical JSON.

Examples:
  heaplab trace --db ./heaplab.db --run 0190c7e4-...
  heaplab trace --db ./heaplab.db --run 0190c7e4-... --action SwapWithParent
  heaplab trace --db ./heaplab.db --run 0190c7e4-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Action, "action", "", "only show this action")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	if opts.Action != "" {
		if _, ok := ir.ParseActionKind(opts.Action); !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown action %q", opts.Action))
		}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrNotFound) {
		out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
		_ = out.Error(CodeRunNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return NewExitError(ExitFailure, "run not found")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	transitions, err := st.ReadTransitions(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transitions", err)
	}

	result := TraceResult{
		Run:      run,
		Timeline: buildTimeline(transitions, ir.ActionKind(opts.Action)),
		Stats:    traceStats(transitions, run),
	}

	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if out.JSON() {
		return out.Success(result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// buildTimeline converts stored transitions to timeline entries, keeping
// only filter when it is set.
func buildTimeline(transitions []ir.Transition, filter ir.ActionKind) []TraceEntry {
	timeline := []TraceEntry{}
	for _, t := range transitions {
		if filter != "" && t.Action != filter {
			continue
		}
		timeline = append(timeline, TraceEntry{
			Seq:       t.Seq,
			Stage:     t.Stage,
			Action:    t.Action,
			Timestamp: t.Timestamp,
			ID:        t.ID,
			Pre:       t.PreState,
			Post:      t.PostState,
		})
	}
	return timeline
}

func traceStats(transitions []ir.Transition, run ir.Run) TraceStats {
	stats := TraceStats{
		Transitions: len(transitions),
		ByStage:     map[string]int{},
		Completed:   run.Completed,
	}
	for _, t := range transitions {
		stats.ByStage[string(t.Stage)]++
		switch t.Action {
		case ir.ActionUndo:
			stats.Undos++
		case ir.ActionRedo:
			stats.Redos++
		case ir.ActionReset:
			stats.Resets++
		}
	}
	return stats
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	run := result.Run
	fmt.Fprintf(w, "Run: %s (user %s, %s)\n", run.ID, run.UserID, run.MachineID)
	fmt.Fprintf(w, "Created: %s\n", formatMillis(run.CreatedAt))
	if run.Completed {
		fmt.Fprintf(w, "Submitted: %s\n", formatMillis(run.CompletedAt))
	}
	fmt.Fprintln(w)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No transitions recorded.")
		return nil
	}

	for _, e := range result.Timeline {
		fmt.Fprintf(w, "[%3d] %-7s %-17s %s\n", e.Seq, e.Stage, e.Action, formatMillis(e.Timestamp))
		if verbose {
			pre, err := ir.MarshalCanonical(e.Pre)
			if err != nil {
				return err
			}
			post, err := ir.MarshalCanonical(e.Post)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "      pre:  %s\n", pre)
			fmt.Fprintf(w, "      post: %s\n", post)
		}
	}

	s := result.Stats
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Transitions: %d (heapify %d, sort %d)\n", s.Transitions, s.ByStage[string(ir.StageHeapify)], s.ByStage[string(ir.StageSort)])
	fmt.Fprintf(w, "Undo %d, Redo %d, Reset %d\n", s.Undos, s.Redos, s.Resets)
	return nil
}
