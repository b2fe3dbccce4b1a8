// Package engine implements the heaplab experiment: the heapify and
// heap-sort stages, their undo/redo history and the session that routes
// learner actions between them.
//
// ARCHITECTURE:
//
// Pure transitions:
// Every stage action is a function func(S) (S, error) over an ir state
// value. It either returns a new state or a *PreconditionViolation and
// never mutates its argument.
//
// Stage:
// A Stage owns the current state, the fixed initial state and a History.
// Accepted actions commit the pre-action state; Undo, Redo and Reset move
// between snapshots. Rejected actions leave everything untouched.
//
// Experiment:
// The session holds both stages, the logical Clock and the Recorder port.
// After each accepted action it stamps a transition with the next seq and
// hands it to the Recorder. The Recorder is fire-and-forget: its errors
// are logged and never roll a transition back.
//
// Determinism:
// Seq numbers, not wall-clock timestamps, order a run. Given the bootstrap
// array and the accepted actions, Replay reproduces every transition id.
package engine
