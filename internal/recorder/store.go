package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/store"
)

// StoreSink writes to the local SQLite log.
type StoreSink struct {
	store *store.Store
	now   func() time.Time
}

// NewStoreSink creates a sink over s. now stamps completion times; nil
// means time.Now.
func NewStoreSink(s *store.Store, now func() time.Time) *StoreSink {
	if now == nil {
		now = time.Now
	}
	return &StoreSink{store: s, now: now}
}

func (s *StoreSink) StartRun(ctx context.Context, run ir.Run) error {
	if run.CreatedAt == 0 {
		run.CreatedAt = s.now().UnixMilli()
	}
	if err := s.store.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("store sink: %w", err)
	}
	return nil
}

func (s *StoreSink) Record(ctx context.Context, t ir.Transition) error {
	if err := s.store.WriteTransition(ctx, t); err != nil {
		return fmt.Errorf("store sink: %w", err)
	}
	return nil
}

// Complete marks the run completed on submission. The heapify hand-over
// is not stored separately; its InitSort transition already marks it.
func (s *StoreSink) Complete(ctx context.Context, c ir.Completion) error {
	if !c.Completed {
		return nil
	}
	if err := s.store.CompleteRun(ctx, c.RunID, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("store sink: %w", err)
	}
	return nil
}
