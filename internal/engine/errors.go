package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/heaplab/internal/ir"
)

// ViolationKind names the precondition an action failed.
type ViolationKind string

const (
	// KindIndexAtBound: the index cannot move further, or the heap is full.
	KindIndexAtBound ViolationKind = "IndexAtBound"

	// KindNoValidParent: no node is selected, or the selected node is the root.
	KindNoValidParent ViolationKind = "NoValidParent"

	// KindEmptyHeap: the sort-stage heap has no elements.
	KindEmptyHeap ViolationKind = "EmptyHeap"

	// KindNoHistory: undo with nothing to undo.
	KindNoHistory ViolationKind = "NoHistory"

	// KindNoFuture: redo with nothing to redo.
	KindNoFuture ViolationKind = "NoFuture"
)

// AllViolationKinds lists every kind in a stable order.
func AllViolationKinds() []ViolationKind {
	return []ViolationKind{KindIndexAtBound, KindNoValidParent, KindEmptyHeap, KindNoHistory, KindNoFuture}
}

// PreconditionViolation reports a rejected action. It is advisory: the
// session state is unchanged and the caller may issue another action.
type PreconditionViolation struct {
	Kind ViolationKind

	// Stage and Action are filled in by the session that dispatched the
	// action. The pure transition functions leave them empty.
	Stage  ir.StageName
	Action ir.ActionKind
}

// Error implements the error interface.
func (e *PreconditionViolation) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s rejected in %s stage", e.Kind, e.Action, e.Stage)
	}
	return string(e.Kind)
}

func violation(kind ViolationKind) *PreconditionViolation {
	return &PreconditionViolation{Kind: kind}
}

// IsPrecondition returns true if err is a PreconditionViolation.
// Uses errors.As to handle wrapped errors.
func IsPrecondition(err error) bool {
	var pv *PreconditionViolation
	return errors.As(err, &pv)
}

// KindOf returns the violation kind carried by err.
func KindOf(err error) (ViolationKind, bool) {
	var pv *PreconditionViolation
	if errors.As(err, &pv) {
		return pv.Kind, true
	}
	return "", false
}

var (
	// ErrStageComplete is returned for any action after the experiment has
	// been submitted.
	ErrStageComplete = errors.New("experiment already submitted")

	// ErrUnknownAction is returned when the active stage has no such action.
	ErrUnknownAction = errors.New("unknown action")

	// ErrNoPendingConfirmation is returned for a Confirm or Cancel action
	// that does not follow Continue or Submit.
	ErrNoPendingConfirmation = errors.New("no confirmation pending")
)
