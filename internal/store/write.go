package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/heaplab/internal/ir"
)

// WriteRun inserts a run. Duplicate ids are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, user_id, machine_id, created_at, completed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.UserID,
		run.MachineID,
		run.CreatedAt,
		boolToInt(run.Completed),
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteTransition appends a transition to its run.
//
// An empty ID is filled in with ir.TransitionID. Writing the same
// transition twice is a no-op; writing different content at an occupied
// (run_id, seq) returns ErrSeqConflict. The run must exist.
func (s *Store) WriteTransition(ctx context.Context, t ir.Transition) error {
	if t.ID == "" {
		id, err := ir.TransitionID(t.RunID, t.Seq, t.Stage, t.Action, t.PreState, t.PostState)
		if err != nil {
			return fmt.Errorf("write transition: %w", err)
		}
		t.ID = id
	}

	preJSON, err := marshalState(t.PreState)
	if err != nil {
		return fmt.Errorf("write transition: %w", err)
	}
	postJSON, err := marshalState(t.PostState)
	if err != nil {
		return fmt.Errorf("write transition: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transitions
		(id, run_id, seq, stage, action, timestamp, pre_state, post_state, record_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		t.ID,
		t.RunID,
		t.Seq,
		string(t.Stage),
		string(t.Action),
		t.Timestamp,
		preJSON,
		postJSON,
		ir.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("write transition: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		var existing string
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM transitions WHERE run_id = ? AND seq = ?`, t.RunID, t.Seq,
		).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Same id already stored under another (run_id, seq).
			return fmt.Errorf("write transition %s: %w", t.ID, ErrSeqConflict)
		case err != nil:
			return fmt.Errorf("write transition: %w", err)
		case existing != t.ID:
			return fmt.Errorf("write transition run=%s seq=%d: %w", t.RunID, t.Seq, ErrSeqConflict)
		}
	}
	return nil
}

// CompleteRun marks a run completed at the given time (Unix ms).
// Completing an already completed run keeps the first completion time.
func (s *Store) CompleteRun(ctx context.Context, runID string, at int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET completed = 1, completed_at = ?
		WHERE id = ? AND completed = 0
	`, at, runID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
