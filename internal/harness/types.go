package harness

import "github.com/roach88/heaplab/internal/ir"

// Step outcomes. A precondition failure is reported by its violation kind
// (IndexAtBound, NoValidParent, EmptyHeap, NoHistory, NoFuture).
const (
	OutcomeOK            = "ok"
	OutcomeStageComplete = "StageComplete"
	OutcomeUnknownAction = "UnknownAction"

	OutcomeNoPendingConfirmation = "NoPendingConfirmation"
)

// TraceEvent is one transition as read back from the store.
type TraceEvent struct {
	Seq       int64         `json:"seq"`
	Stage     ir.StageName  `json:"stage"`
	Action    ir.ActionKind `json:"action"`
	Timestamp int64         `json:"timestamp"`
	Pre       ir.Object     `json:"pre"`
	Post      ir.Object     `json:"post"`
}

// StepOutcome records what happened to one scenario step.
type StepOutcome struct {
	Action  string `json:"action"`
	Expect  string `json:"expect"`
	Outcome string `json:"outcome"`
	Prompt  string `json:"prompt"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step matched its expect and every assertion
	// held.
	Pass bool `json:"pass"`

	// Trace is the recorded run, in seq order.
	Trace []TraceEvent `json:"trace"`

	Outcomes []StepOutcome `json:"outcomes"`
	Errors   []string      `json:"errors,omitempty"`

	// Final session state.
	Stage     ir.StageName    `json:"stage"`
	Submitted bool            `json:"submitted"`
	Heapify   ir.HeapifyState `json:"heapify"`
	Sort      *ir.SortState   `json:"sort,omitempty"`
	Undo      int             `json:"undo"`
	Redo      int             `json:"redo"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Outcomes: []StepOutcome{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
