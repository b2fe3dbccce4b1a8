package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/heaplab/internal/collector"
	"github.com/roach88/heaplab/internal/metrics"
	"github.com/roach88/heaplab/internal/store"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	Database string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the run-logging service",
		Long: `Serve the run-logging API backed by a SQLite database.

Endpoints:
  POST /createRun      issue a run id
  POST /updateRun      append one transition
  GET  /complete/:id   mark a run submitted
  GET  /runs[/:id]     list runs, or one run with its transitions
  GET  /healthz        liveness
  GET  /metrics        Prometheus metrics

Examples:
  heaplab serve --db ./heaplab.db
  heaplab serve --db ./heaplab.db --addr 127.0.0.1:9090`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.Database, "db", "heaplab.db", "path to SQLite database")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := slog.Default()

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	dbPath := opts.Database
	if !cmd.Flags().Changed("db") && cfg.Recorder.Database != "" {
		dbPath = cfg.Recorder.Database
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if pending, err := st.FindIncompleteRuns(ctx); err == nil && len(pending) > 0 {
		logger.Info("incomplete runs in database", "count", len(pending))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers := collector.NewHandlers(st, collector.WithLogger(logger))
	srv := &http.Server{
		Addr:              addr,
		Handler:           collector.NewRouter(handlers, m, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	logger.Info("serving", "addr", ln.Addr().String(), "database", dbPath)

	if err := serve(ctx, srv, ln); err != nil {
		return WrapExitError(ExitFailure, "server failed", err)
	}
	logger.Info("server stopped")
	return nil
}

// serve runs srv on ln until ctx is done, then shuts it down.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
