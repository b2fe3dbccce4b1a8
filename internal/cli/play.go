package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/heaplab/internal/config"
	"github.com/roach88/heaplab/internal/engine"
	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/recorder"
	"github.com/roach88/heaplab/internal/store"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database     string
	Remote       string
	KafkaBrokers []string
	KafkaTopic   string
	Seed         int64
	Array        []int
	UserID       string
	HistoryLimit int
}

// PlaySummary is printed when a session ends.
type PlaySummary struct {
	RunID       string       `json:"run_id"`
	Transitions int64        `json:"transitions"`
	Stage       ir.StageName `json:"stage"`
	Submitted   bool         `json:"submitted"`
	Sorted      []int        `json:"sorted,omitempty"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run an interactive heap sort session",
		Long: `Start a session over a random array and read one action per line.

Type an action name (case does not matter), "help" to list the actions
the current stage accepts, "show" to redraw, or "quit" to leave. Every
accepted action is delivered to the configured recorders in the
background; a slow or failing recorder never blocks the session.

Examples:
  heaplab play
  heaplab play --seed 7 --db ./heaplab.db
  heaplab play --array 4,1,3 --remote http://localhost:8080
  heaplab play --kafka-broker localhost:9092 --kafka-topic heaplab.transitions`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record to this SQLite database")
	cmd.Flags().StringVar(&opts.Remote, "remote", "", "record to the run-logging service at this URL")
	cmd.Flags().StringSliceVar(&opts.KafkaBrokers, "kafka-broker", nil, "publish transitions to these Kafka brokers")
	cmd.Flags().StringVar(&opts.KafkaTopic, "kafka-topic", "", "Kafka topic (default from config)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed for the random array (0 picks one)")
	cmd.Flags().IntSliceVar(&opts.Array, "array", nil, "use this array instead of a random one")
	cmd.Flags().StringVar(&opts.UserID, "user", "anonymous", "learner id sent with the run")
	cmd.Flags().IntVar(&opts.HistoryLimit, "history-limit", 0, "cap the undo depth of each stage (0 is unbounded)")

	return cmd
}

// applyFlags overlays flags the user set on the loaded config.
func (o *PlayOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Recorder.Database = o.Database
	}
	if flags.Changed("remote") {
		cfg.Recorder.RemoteURL = o.Remote
	}
	if flags.Changed("kafka-broker") {
		cfg.Recorder.Kafka.Brokers = o.KafkaBrokers
	}
	if flags.Changed("kafka-topic") {
		cfg.Recorder.Kafka.Topic = o.KafkaTopic
	}
	if flags.Changed("seed") {
		cfg.Experiment.Seed = o.Seed
	}
	if flags.Changed("history-limit") {
		cfg.Experiment.HistoryLimit = o.HistoryLimit
	}
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	opts.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	array, err := bootstrapArray(cfg, opts.Array)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build array", err)
	}

	sinks, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sinks.close(logger)

	runID := sinks.newRunID(ctx, opts.UserID, cfg.Experiment.MachineID, logger)

	async := recorder.NewAsync(sinks.all,
		recorder.WithQueueLimit(cfg.Recorder.QueueSize),
		recorder.WithAsyncLogger(logger),
		recorder.WithSinkName("play"),
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return async.Run(gctx) })

	run := ir.Run{
		ID:        runID,
		UserID:    opts.UserID,
		MachineID: cfg.Experiment.MachineID,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := recorder.StartRun(ctx, async, run); err != nil {
		logger.Warn("start run failed", "run_id", runID, "error", err)
	}

	exp := engine.New(runID, array,
		engine.WithRecorder(async),
		engine.WithLogger(logger),
		engine.WithHistoryLimit(cfg.Experiment.HistoryLimit),
		engine.WithUserID(opts.UserID),
		engine.WithMachineID(cfg.Experiment.MachineID),
	)
	exp.Start(ctx)

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		out = io.Discard
	}
	playErr := playSession(ctx, exp, cmd.InOrStdin(), out)

	async.Close()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("recorder stopped early", "error", err)
	}
	if playErr != nil {
		return WrapExitError(ExitCommandError, "failed to read input", playErr)
	}

	summary := PlaySummary{
		RunID:       runID,
		Transitions: exp.Seq(),
		Stage:       exp.ActiveStage(),
		Submitted:   exp.Submitted(),
	}
	if s, ok := exp.SortState(); ok {
		summary.Sorted = s.FinalArray
	}
	if opts.Format == "json" {
		return NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nRun %s: %d transitions recorded", summary.RunID, summary.Transitions)
	if summary.Submitted {
		fmt.Fprintf(cmd.OutOrStdout(), ", sorted %s", formatInts(summary.Sorted))
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

// bootstrapArray returns the supplied array after validation, or a random
// one drawn from the configured range.
func bootstrapArray(cfg config.Config, supplied []int) ([]int, error) {
	spec := cfg.ArraySpec()
	if len(supplied) > 0 {
		spec.Length = len(supplied)
		if err := engine.ValidateArray(supplied, spec); err != nil {
			return nil, err
		}
		return supplied, nil
	}
	seed := uint64(cfg.Experiment.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return engine.RandomArray(rand.New(rand.NewPCG(seed, seed)), spec)
}

// playSession reads actions from in until quit, end of input, or
// submission.
func playSession(ctx context.Context, exp *engine.Experiment, in io.Reader, out io.Writer) error {
	renderExperiment(out, exp)

	scanner := bufio.NewScanner(in)
	for !exp.Submitted() {
		fmt.Fprint(out, "heaplab> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintf(out, "actions: %s\n", joinActions(exp.Actions()))
			continue
		case "show":
			renderExperiment(out, exp)
			continue
		}

		kind, ok := matchAction(line)
		if !ok {
			fmt.Fprintf(out, "unknown action %q (type help)\n", line)
			continue
		}
		// Rejections leave the session unchanged; the prompt explains them.
		_, _ = exp.Dispatch(ctx, kind)
		renderExperiment(out, exp)
	}
	return nil
}

// matchAction resolves an action name case-insensitively.
func matchAction(s string) (ir.ActionKind, bool) {
	for _, k := range ir.AllActions() {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

func joinActions(actions []ir.ActionKind) string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

// sinkSet is the recorders a session delivers to.
type sinkSet struct {
	all     recorder.Multi
	store   *store.Store
	http    *recorder.HTTPSink
	kafka   *recorder.KafkaSink
	closers []io.Closer
}

// openSinks builds one recorder per configured destination. A log sink is
// always present at debug level.
func openSinks(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sinkSet, error) {
	s := &sinkSet{all: recorder.Multi{recorder.NewLogSink(logger, slog.LevelDebug)}}

	if path := cfg.Recorder.Database; path != "" {
		st, err := store.Open(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		s.store = st
		s.closers = append(s.closers, st)
		s.all = append(s.all, recorder.NewStoreSink(st, nil))
	}
	if u := cfg.Recorder.RemoteURL; u != "" {
		s.http = recorder.NewHTTPSink(u, cfg.Timeout())
		s.all = append(s.all, s.http)
	}
	if brokers := cfg.Recorder.Kafka.Brokers; len(brokers) > 0 {
		s.kafka = recorder.NewKafkaSink(brokers, cfg.Recorder.Kafka.Topic)
		s.closers = append(s.closers, s.kafka)
		s.all = append(s.all, s.kafka)
	}
	logger.Debug("recorders configured",
		"sinks", len(s.all),
		"database", cfg.Recorder.Database,
		"remote", cfg.Recorder.RemoteURL,
		"kafka_brokers", cfg.Recorder.Kafka.Brokers,
	)
	return s, nil
}

// newRunID asks the remote service for the run id when one is configured.
// An unreachable service does not stop the session: the id is generated
// locally and later deliveries fail in the recorder queue.
func (s *sinkSet) newRunID(ctx context.Context, userID, machineID string, logger *slog.Logger) string {
	if s.http != nil {
		id, err := s.http.CreateRun(ctx, userID, machineID)
		if err == nil {
			return id
		}
		logger.Warn("remote createRun failed, using a local run id", "error", err)
	}
	return engine.UUIDv7Generator{}.Generate()
}

func (s *sinkSet) close(logger *slog.Logger) {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close recorder", "error", err)
		}
	}
}
