package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/heaplab/internal/ir"
	"github.com/roach88/heaplab/internal/metrics"
)

// DefaultMachineID identifies the heap-sort experiment to the run-logging
// service.
const DefaultMachineID = "heapSort"

// Recorder receives every recorded transition. Implementations must not
// block the caller for long; failures are logged and never undo the
// transition.
type Recorder interface {
	Record(ctx context.Context, t ir.Transition) error
}

// Completer is an optional Recorder extension that receives the
// once-per-stage completion signal.
type Completer interface {
	Complete(ctx context.Context, c ir.Completion) error
}

// Result describes an accepted action.
type Result struct {
	Stage      ir.StageName
	Action     ir.ActionKind
	Prompt     string
	Transition ir.Transition
}

// Experiment is one learner session: the heapify stage followed by the
// sort stage.
//
// Dispatch is synchronous; each action is fully applied before it returns.
// An Experiment is not safe for concurrent use.
type Experiment struct {
	runID        string
	userID       string
	machineID    string
	clock        Sequencer
	recorder     Recorder
	metrics      *metrics.Metrics
	now          func() time.Time
	logger       *slog.Logger
	historyLimit int

	heapify   *Stage[ir.HeapifyState]
	sort      *Stage[ir.SortState]
	active    ir.StageName
	started   bool
	submitted bool
	prompt    string
}

// Option configures an Experiment.
type Option func(*Experiment)

// WithRecorder sets the transition recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Experiment) { e.recorder = r }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Experiment) { e.metrics = m }
}

// WithClock sets the logical clock. Used to resume a run's numbering.
func WithClock(c Sequencer) Option {
	return func(e *Experiment) { e.clock = c }
}

// WithNow sets the wall-clock source for transition timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Experiment) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

// WithHistoryLimit caps each stage's undo depth. 0 is unbounded.
func WithHistoryLimit(n int) Option {
	return func(e *Experiment) { e.historyLimit = n }
}

// WithUserID sets the learner id.
func WithUserID(id string) Option {
	return func(e *Experiment) { e.userID = id }
}

// WithMachineID sets the machine id reported with the run.
func WithMachineID(id string) Option {
	return func(e *Experiment) { e.machineID = id }
}

// New creates an experiment over the bootstrap array. Call Start before
// dispatching actions.
func New(runID string, array []int, opts ...Option) *Experiment {
	e := &Experiment{
		runID:     runID,
		machineID: DefaultMachineID,
		clock:     NewClock(),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.heapify = NewHeapifyStage(array, e.historyLimit)
	e.active = ir.StageHeapify
	e.prompt = e.heapify.Prompt()
	return e
}

// Start records the InitHeapify transition. It is a no-op once started.
func (e *Experiment) Start(ctx context.Context) {
	if e.started {
		return
	}
	e.started = true
	e.recordInit(ctx, ir.StageHeapify, ir.ActionInitHeapify, e.heapify.State().ToIR())
}

// Dispatch applies one action to the active stage.
//
// A *PreconditionViolation leaves the session unchanged. ErrStageComplete
// is returned for every action after ConfirmSubmit, ErrUnknownAction for an
// action the active stage does not offer and ErrNoPendingConfirmation for
// Confirm or Cancel without a preceding Continue or Submit.
func (e *Experiment) Dispatch(ctx context.Context, kind ir.ActionKind) (Result, error) {
	if !e.started {
		e.Start(ctx)
	}
	if e.submitted {
		e.prompt = PromptSubmitted
		e.metrics.ObserveRejection(string(e.active), "StageComplete")
		return Result{}, ErrStageComplete
	}

	switch e.active {
	case ir.StageHeapify:
		step, err := e.heapify.Apply(kind)
		if err != nil {
			return Result{}, e.reject(kind, err, e.heapify.Prompt())
		}
		res := e.accept(ctx, ir.StageHeapify, step.Action, step.Prompt, step.Pre.ToIR(), step.Post.ToIR())
		if kind == ir.ActionConfirmContinue {
			e.handOver(ctx, step.Post)
		}
		return res, nil

	default:
		step, err := e.sort.Apply(kind)
		if err != nil {
			return Result{}, e.reject(kind, err, e.sort.Prompt())
		}
		res := e.accept(ctx, ir.StageSort, step.Action, step.Prompt, step.Pre.ToIR(), step.Post.ToIR())
		if kind == ir.ActionConfirmSubmit {
			e.submitted = true
			e.complete(ctx, ir.Completion{
				RunID:     e.runID,
				Stage:     ir.StageSort,
				HeapData:  step.Post.HeapData,
				Completed: true,
			})
		}
		return res, nil
	}
}

// handOver emits the heapify completion and starts the sort stage on the
// confirmed heap.
func (e *Experiment) handOver(ctx context.Context, final ir.HeapifyState) {
	e.complete(ctx, ir.Completion{
		RunID:    e.runID,
		Stage:    ir.StageHeapify,
		HeapData: append([]int{}, final.HeapData...),
	})
	e.sort = NewSortStage(final.HeapData, e.historyLimit)
	e.active = ir.StageSort
	e.recordInit(ctx, ir.StageSort, ir.ActionInitSort, e.sort.State().ToIR())
}

func (e *Experiment) reject(kind ir.ActionKind, err error, prompt string) error {
	label := "Unknown"
	if k, ok := KindOf(err); ok {
		label = string(k)
	} else if errors.Is(err, ErrUnknownAction) {
		label = "UnknownAction"
		prompt = PromptUnknownAction
	} else if errors.Is(err, ErrNoPendingConfirmation) {
		label = "NoPendingConfirmation"
	}
	e.prompt = prompt
	e.metrics.ObserveRejection(string(e.active), label)
	e.logger.Debug("action rejected",
		"run_id", e.runID,
		"stage", e.active,
		"action", kind,
		"error", err,
	)
	return err
}

func (e *Experiment) accept(ctx context.Context, stage ir.StageName, kind ir.ActionKind, prompt string, pre, post ir.Object) Result {
	e.prompt = prompt
	t := e.record(ctx, stage, kind, pre, post)
	return Result{Stage: stage, Action: kind, Prompt: prompt, Transition: t}
}

// recordInit logs a stage start. The pre-state is empty, as the
// run-logging service expects.
func (e *Experiment) recordInit(ctx context.Context, stage ir.StageName, kind ir.ActionKind, post ir.Object) {
	e.record(ctx, stage, kind, ir.Object{}, post)
}

// record stamps and forwards a transition. Recorder failures are logged
// and swallowed.
func (e *Experiment) record(ctx context.Context, stage ir.StageName, kind ir.ActionKind, pre, post ir.Object) ir.Transition {
	seq := e.clock.Next()
	id, err := ir.TransitionID(e.runID, seq, stage, kind, pre, post)
	if err != nil {
		e.logger.Error("transition id failed", "run_id", e.runID, "seq", seq, "error", err)
	}
	t := ir.Transition{
		ID:        id,
		RunID:     e.runID,
		Seq:       seq,
		Stage:     stage,
		Action:    kind,
		Timestamp: e.now().UnixMilli(),
		PreState:  pre,
		PostState: post,
	}
	e.metrics.ObserveTransition(string(stage), string(kind))

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, t); err != nil {
			e.logger.Warn("recorder failed",
				"run_id", e.runID,
				"seq", seq,
				"action", kind,
				"error", err,
			)
		}
	}
	return t
}

func (e *Experiment) complete(ctx context.Context, c ir.Completion) {
	completer, ok := e.recorder.(Completer)
	if !ok {
		return
	}
	if err := completer.Complete(ctx, c); err != nil {
		e.logger.Warn("completion failed",
			"run_id", e.runID,
			"stage", c.Stage,
			"error", err,
		)
	}
}

// RunID returns the run id.
func (e *Experiment) RunID() string { return e.runID }

// UserID returns the learner id.
func (e *Experiment) UserID() string { return e.userID }

// MachineID returns the machine id.
func (e *Experiment) MachineID() string { return e.machineID }

// ActiveStage returns the stage actions are routed to.
func (e *Experiment) ActiveStage() ir.StageName { return e.active }

// Submitted reports whether ConfirmSubmit has been accepted.
func (e *Experiment) Submitted() bool { return e.submitted }

// Prompt returns the text for the last action.
func (e *Experiment) Prompt() string { return e.prompt }

// Seq returns the last issued sequence number.
func (e *Experiment) Seq() int64 { return e.clock.Current() }

// HeapifyState returns a copy of the heapify stage's current state.
func (e *Experiment) HeapifyState() ir.HeapifyState { return e.heapify.State() }

// SortState returns a copy of the sort stage's current state. ok is false
// before the hand-over.
func (e *Experiment) SortState() (s ir.SortState, ok bool) {
	if e.sort == nil {
		return ir.SortState{}, false
	}
	return e.sort.State(), true
}

// Awaiting reports whether the active stage is waiting for a confirmation.
func (e *Experiment) Awaiting() bool {
	if e.active == ir.StageSort {
		return e.sort.Awaiting()
	}
	return e.heapify.Awaiting()
}

// HistoryDepth returns the undo and redo depth of the active stage.
func (e *Experiment) HistoryDepth() (undo, redo int) {
	if e.active == ir.StageSort {
		return e.sort.HistoryDepth()
	}
	return e.heapify.HistoryDepth()
}

// Actions lists the actions the active stage accepts.
func (e *Experiment) Actions() []ir.ActionKind {
	if e.active == ir.StageSort {
		return e.sort.Actions()
	}
	return e.heapify.Actions()
}
