// Package store provides SQLite-backed durable storage for heaplab runs.
//
// The store is an append-only log of:
//   - Runs: one row per experiment session, marked completed on submission
//   - Transitions: every recorded state change, keyed by (run_id, seq)
//
// # Patterns
//
// Content-addressed idempotency
//   - transition ids come from ir.TransitionID
//   - ON CONFLICT DO NOTHING makes re-delivery a no-op
//   - different content at an occupied seq is ErrSeqConflict
//
// Logical time
//   - ordering uses the seq column, never the timestamp column
//   - all transition queries use ORDER BY seq ASC, id COLLATE BINARY ASC
//
// States are stored as RFC 8785 canonical JSON TEXT.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: a transition's run must exist
package store
