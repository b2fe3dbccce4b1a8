package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/heaplab/internal/ir"
)

// ReadRun retrieves a run by id. Returns ErrNotFound if absent.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, machine_id, created_at, completed, completed_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// ListRuns returns runs ordered by creation time, then id.
// limit <= 0 returns all runs. Returns an empty slice (not nil) if none.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]ir.Run, error) {
	query := `
		SELECT id, user_id, machine_id, created_at, completed, completed_at
		FROM runs
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadTransitions returns every transition of a run.
// Ordering is deterministic: ORDER BY seq ASC, id COLLATE BINARY ASC.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadTransitions(ctx context.Context, runID string) ([]ir.Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, seq, stage, action, timestamp, pre_state, post_state
		FROM transitions
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	transitions := []ir.Transition{}
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return transitions, nil
}

// NextSeq returns the seq after the highest recorded one (1 for a new run).
func (s *Store) NextSeq(ctx context.Context, runID string) (int64, error) {
	var max int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM transitions WHERE run_id = ?`, runID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return max + 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ir.Run, error) {
	var run ir.Run
	var completed int
	if err := row.Scan(&run.ID, &run.UserID, &run.MachineID, &run.CreatedAt, &completed, &run.CompletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Run{}, err
		}
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Completed = completed != 0
	return run, nil
}

func scanTransition(row scanner) (ir.Transition, error) {
	var t ir.Transition
	var stage, action, preJSON, postJSON string
	if err := row.Scan(&t.ID, &t.RunID, &t.Seq, &stage, &action, &t.Timestamp, &preJSON, &postJSON); err != nil {
		return ir.Transition{}, fmt.Errorf("scan transition: %w", err)
	}
	t.Stage = ir.StageName(stage)
	t.Action = ir.ActionKind(action)

	var err error
	if t.PreState, err = unmarshalState(preJSON); err != nil {
		return ir.Transition{}, fmt.Errorf("transition %s: %w", t.ID, err)
	}
	if t.PostState, err = unmarshalState(postJSON); err != nil {
		return ir.Transition{}, fmt.Errorf("transition %s: %w", t.ID, err)
	}
	return t, nil
}
