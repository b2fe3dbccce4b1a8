package store

import (
	"context"
	"fmt"

	"github.com/roach88/heaplab/internal/ir"
)

// RunState summarises a run for listing and recovery.
type RunState struct {
	Run         ir.Run
	Transitions int
	LastSeq     int64
	Stage       ir.StageName // stage of the last transition; empty if none
	LastAction  ir.ActionKind
}

// GetRunState reads a run and summarises its transitions.
func (s *Store) GetRunState(ctx context.Context, runID string) (RunState, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}
	state := RunState{Run: run}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(seq), 0)
		FROM transitions
		WHERE run_id = ?
	`, runID)
	if err := row.Scan(&state.Transitions, &state.LastSeq); err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}
	if state.Transitions == 0 {
		return state, nil
	}

	var stage, action string
	err = s.db.QueryRowContext(ctx, `
		SELECT stage, action FROM transitions
		WHERE run_id = ? AND seq = ?
	`, runID, state.LastSeq).Scan(&stage, &action)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}
	state.Stage = ir.StageName(stage)
	state.LastAction = ir.ActionKind(action)
	return state, nil
}

// FindIncompleteRuns returns the ids of runs never completed, oldest first.
// These are abandoned sessions or sessions still in progress.
func (s *Store) FindIncompleteRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE completed = 0
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("find incomplete runs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("find incomplete runs: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find incomplete runs: %w", err)
	}
	return ids, nil
}
