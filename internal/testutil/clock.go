package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a resettable logical clock for tests. It satisfies
// engine.Sequencer, so the same scenario run twice produces the same seqs.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last issued sequence number.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// Epoch is the fixed wall-clock start used by test time sources:
// 2024-01-01T00:00:00Z.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// SteppingTime is a wall-clock source that advances by Step on every call,
// starting at Start. Timestamps in golden traces come from it.
type SteppingTime struct {
	mu    sync.Mutex
	Start time.Time
	Step  time.Duration
	calls int64
}

// NewSteppingTime starts at Epoch and advances one second per call.
func NewSteppingTime() *SteppingTime {
	return &SteppingTime{Start: Epoch, Step: time.Second}
}

// Now returns Start + calls*Step and advances.
func (s *SteppingTime) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.Start.Add(time.Duration(s.calls) * s.Step)
	s.calls++
	return t
}

// FixedTime returns a time source that always reports t.
func FixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
