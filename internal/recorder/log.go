package recorder

import (
	"context"
	"log/slog"

	"github.com/roach88/heaplab/internal/ir"
)

// LogSink writes one structured record per delivery.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogSink logs at level. A nil logger means slog.Default().
func NewLogSink(logger *slog.Logger, level slog.Level) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, level: level}
}

func (s *LogSink) StartRun(ctx context.Context, run ir.Run) error {
	s.logger.Log(ctx, s.level, "run started",
		"run_id", run.ID,
		"user_id", run.UserID,
		"machine_id", run.MachineID,
	)
	return nil
}

func (s *LogSink) Record(ctx context.Context, t ir.Transition) error {
	s.logger.Log(ctx, s.level, "transition",
		"run_id", t.RunID,
		"seq", t.Seq,
		"stage", t.Stage,
		"action", t.Action,
		"id", t.ID,
	)
	return nil
}

func (s *LogSink) Complete(ctx context.Context, c ir.Completion) error {
	s.logger.Log(ctx, s.level, "stage complete",
		"run_id", c.RunID,
		"stage", c.Stage,
		"heap", c.HeapData,
		"completed", c.Completed,
	)
	return nil
}
