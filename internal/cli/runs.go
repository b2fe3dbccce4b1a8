package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database   string
	Limit      int
	Incomplete bool
}

// RunSummary is one row of the runs listing.
type RunSummary struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	MachineID   string       `json:"machine_id"`
	CreatedAt   int64        `json:"created_at"`
	Completed   bool         `json:"completed"`
	Transitions int          `json:"transitions"`
	Stage       ir.StageName `json:"stage,omitempty"`
	LastAction  string       `json:"last_action,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs in a database, oldest first.

Examples:
  heaplab runs --db ./heaplab.db
  heaplab runs --db ./heaplab.db --incomplete
  heaplab runs --db ./heaplab.db --limit 10 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many runs (0 is all)")
	cmd.Flags().BoolVar(&opts.Incomplete, "incomplete", false, "only runs never submitted")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ids, err := listRunIDs(ctx, st, opts.Limit, opts.Incomplete)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries := make([]RunSummary, 0, len(ids))
	for _, id := range ids {
		state, err := st.GetRunState(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read run %s", id), err)
		}
		summaries = append(summaries, RunSummary{
			ID:          state.Run.ID,
			UserID:      state.Run.UserID,
			MachineID:   state.Run.MachineID,
			CreatedAt:   state.Run.CreatedAt,
			Completed:   state.Run.Completed,
			Transitions: state.Transitions,
			Stage:       state.Stage,
			LastAction:  string(state.LastAction),
		})
	}

	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if out.JSON() {
		return out.Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tUSER\tCREATED\tSTAGE\tSTEPS\tSUBMITTED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%v\n",
			s.ID, s.UserID, formatMillis(s.CreatedAt), s.Stage, s.Transitions, s.Completed)
	}
	return tw.Flush()
}

func listRunIDs(ctx context.Context, st *store.Store, limit int, incomplete bool) ([]string, error) {
	if incomplete {
		ids, err := st.FindIncompleteRuns(ctx)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(ids) > limit {
			ids = ids[:limit]
		}
		return ids, nil
	}
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids, nil
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
