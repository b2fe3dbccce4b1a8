package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when a run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSeqConflict is returned when a different transition already holds
	// the same (run_id, seq).
	ErrSeqConflict = errors.New("seq already recorded with different content")
)

// migrations[i] upgrades a database at user_version i to i+1.
// Append only; never reorder.
var migrations = []string{
	`CREATE INDEX IF NOT EXISTS idx_runs_completed ON runs(completed, created_at)`,
}

// currentSchemaVersion is the user_version a fully migrated database reports.
var currentSchemaVersion = len(migrations)

// connPragmas run on every Open, in order.
var connPragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// Store is the durable run log backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the run log at path. ":memory:" gives a private
// database that lives as long as the Store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}

	// One connection: SQLite has a single writer, and :memory: databases are
	// per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range connPragmas {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return s.migrate()
}

// migrate brings user_version up to currentSchemaVersion.
func (s *Store) migrate() error {
	version, err := s.pragma("user_version")
	if err != nil {
		return err
	}
	var from int
	if _, err := fmt.Sscan(version, &from); err != nil {
		return fmt.Errorf("user_version %q: %w", version, err)
	}
	for v := from; v < len(migrations); v++ {
		if _, err := s.db.Exec(migrations[v]); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	if from < currentSchemaVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}

func (s *Store) verifyPragma(name, expected string) error {
	got, err := s.pragma(name)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("pragma %s = %q, want %q", name, got, expected)
	}
	return nil
}
