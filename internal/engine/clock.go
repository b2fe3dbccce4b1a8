package engine

import "sync/atomic"

// Sequencer issues the logical seq numbers of a run.
// Implemented by *Clock and testutil.DeterministicClock.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock stamps each committed transition with the next seq. The trace is
// ordered by seq alone; wall-clock timestamps are informational.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock { return new(Clock) }

// NewClockAt returns a clock that continues after seq last, so a replayed
// run keeps its recorded numbering.
func NewClockAt(last int64) *Clock {
	c := new(Clock)
	c.last.Store(last)
	return c
}

func (c *Clock) Next() int64    { return c.last.Add(1) }
func (c *Clock) Current() int64 { return c.last.Load() }
