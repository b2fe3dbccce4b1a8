package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/heaplab/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run with minimal fields.
func createTestRun(t *testing.T, s *Store, id string, createdAt int64) ir.Run {
	t.Helper()
	run := ir.Run{ID: id, UserID: "user-" + id, MachineID: "heapSort", CreatedAt: createdAt}
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}

// createTestTransition builds a heapify transition whose post-state heap is
// heap. The id is left empty so WriteTransition computes it.
func createTestTransition(runID string, seq int64, action ir.ActionKind, heap []int) ir.Transition {
	pre := ir.HeapifyState{Array: []int{3, 1, 2}, HeapData: []int{}}
	post := ir.HeapifyState{Array: []int{3, 1, 2}, HeapData: heap}
	if len(heap) > 0 {
		post.Node = ir.Node(len(heap) - 1)
	}
	return ir.Transition{
		RunID:     runID,
		Seq:       seq,
		Stage:     ir.StageHeapify,
		Action:    action,
		Timestamp: 1704067200000 + seq,
		PreState:  pre.ToIR(),
		PostState: post.ToIR(),
	}
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
	if err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index: %v", err)
		}
		names = append(names, name)
	}
	return names
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
