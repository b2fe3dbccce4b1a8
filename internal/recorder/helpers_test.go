package recorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/heaplab/internal/ir"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memSink records deliveries in memory.
type memSink struct {
	mu          sync.Mutex
	runs        []ir.Run
	transitions []ir.Transition
	completions []ir.Completion
	err         error
}

func (m *memSink) StartRun(_ context.Context, run ir.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

func (m *memSink) Record(_ context.Context, t ir.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, t)
	return m.err
}

func (m *memSink) Complete(_ context.Context, c ir.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, c)
	return m.err
}

func (m *memSink) seqs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.transitions))
	for i, t := range m.transitions {
		out[i] = t.Seq
	}
	return out
}

var errSink = errors.New("sink down")

// recordOnly implements Record and nothing else.
type recordOnly struct{ n int }

func (r *recordOnly) Record(context.Context, ir.Transition) error {
	r.n++
	return nil
}
