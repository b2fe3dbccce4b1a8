package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/heaplab/internal/ir"
)

// State is what a Stage needs from its state type.
type State[S any] interface {
	Snapshot[S]
	Equal(S) bool
	ToIR() ir.Object
}

// transitionFunc is a pure action: it never mutates its argument.
type transitionFunc[S any] func(S) (S, error)

// Step is the result of one accepted action.
type Step[S any] struct {
	Action ir.ActionKind
	Pre    S
	Post   S
	Prompt string
}

// Stage is the state machine for one part of the experiment: the current
// state, the fixed initial state Reset returns to, and the undo/redo ledger.
//
// Every accepted action other than Undo, Redo and Reset commits the
// pre-action state to history, including the confirmation actions that
// leave the state unchanged.
type Stage[S State[S]] struct {
	name       ir.StageName
	initAction ir.ActionKind
	initial    S
	current    S
	history    *History[S]
	actions    map[ir.ActionKind]transitionFunc[S]
	asks       map[ir.ActionKind]bool
	answers    map[ir.ActionKind]bool
	prompts    map[ir.ActionKind]Prompt
	prompt     string
	awaiting   bool
}

// NewHeapifyStage creates the heap-construction stage over array.
func NewHeapifyStage(array []int, historyLimit int) *Stage[ir.HeapifyState] {
	initial := ir.HeapifyState{
		Array:    append([]int{}, array...),
		Index:    0,
		HeapData: []int{},
		Node:     ir.NoNode,
	}
	return newStage(ir.StageHeapify, ir.ActionInitHeapify, initial, historyLimit,
		map[ir.ActionKind]transitionFunc[ir.HeapifyState]{
			ir.ActionIncrementIndex:  IncrementIndex,
			ir.ActionAddNode:         AddNode,
			ir.ActionSwapWithParent:  SwapWithParent,
			ir.ActionContinue:        unchangedHeapify,
			ir.ActionCancelContinue:  unchangedHeapify,
			ir.ActionConfirmContinue: ConfirmContinue,
		},
		map[ir.ActionKind]bool{ir.ActionContinue: true},
		map[ir.ActionKind]bool{ir.ActionCancelContinue: true, ir.ActionConfirmContinue: true},
		heapifyPrompts,
	)
}

// NewSortStage creates the extraction stage over the heap handed over by
// the heapify stage.
func NewSortStage(heap []int, historyLimit int) *Stage[ir.SortState] {
	initial := ir.SortState{
		FinalArray: []int{},
		HeapData:   append([]int{}, heap...),
		Node:       rootOrNone(len(heap)),
	}
	return newStage(ir.StageSort, ir.ActionInitSort, initial, historyLimit,
		map[ir.ActionKind]transitionFunc[ir.SortState]{
			ir.ActionSwapRootAndEnd:   SwapRootAndEnd,
			ir.ActionPushEndAndDelete: PushEndAndDelete,
			ir.ActionHeapify:          Heapify,
			ir.ActionSubmit:           unchangedSort,
			ir.ActionCancelSubmit:     unchangedSort,
			ir.ActionConfirmSubmit:    unchangedSort,
		},
		map[ir.ActionKind]bool{ir.ActionSubmit: true},
		map[ir.ActionKind]bool{ir.ActionCancelSubmit: true, ir.ActionConfirmSubmit: true},
		sortPrompts,
	)
}

func newStage[S State[S]](
	name ir.StageName,
	initAction ir.ActionKind,
	initial S,
	historyLimit int,
	actions map[ir.ActionKind]transitionFunc[S],
	asks map[ir.ActionKind]bool,
	answers map[ir.ActionKind]bool,
	prompts map[ir.ActionKind]Prompt,
) *Stage[S] {
	return &Stage[S]{
		name:       name,
		initAction: initAction,
		initial:    initial,
		current:    initial.Clone(),
		history:    NewHistory[S](historyLimit),
		actions:    actions,
		asks:       asks,
		answers:    answers,
		prompts:    prompts,
		prompt:     prompts[initAction].Success,
	}
}

// Apply runs one action against the current state.
//
// On a PreconditionViolation the state and history are untouched and the
// failure prompt becomes current. ErrUnknownAction is returned for actions
// this stage does not offer, ErrNoPendingConfirmation for Confirm or Cancel
// outside a confirmation.
func (st *Stage[S]) Apply(kind ir.ActionKind) (Step[S], error) {
	pre := st.current.Clone()

	var post S
	var err error
	switch kind {
	case ir.ActionUndo:
		post, err = st.history.Undo(st.current)
	case ir.ActionRedo:
		post, err = st.history.Redo(st.current)
	case ir.ActionReset:
		st.history.Reset()
		post = st.initial.Clone()
	default:
		fn, ok := st.actions[kind]
		if !ok {
			return Step[S]{}, fmt.Errorf("%w: %s in %s stage", ErrUnknownAction, kind, st.name)
		}
		if st.answers[kind] && !st.awaiting {
			st.prompt = PromptNoPendingConfirmation
			return Step[S]{}, fmt.Errorf("%w: %s in %s stage", ErrNoPendingConfirmation, kind, st.name)
		}
		post, err = fn(st.current)
		if err == nil {
			st.history.Commit(pre)
		}
	}

	if err != nil {
		var pv *PreconditionViolation
		if errors.As(err, &pv) {
			pv.Stage = st.name
			pv.Action = kind
		}
		st.prompt = st.prompts[kind].Failure
		return Step[S]{}, err
	}

	st.current = post
	st.awaiting = st.asks[kind]
	st.prompt = st.prompts[kind].Success
	return Step[S]{Action: kind, Pre: pre, Post: post.Clone(), Prompt: st.prompt}, nil
}

// Name returns the stage name.
func (st *Stage[S]) Name() ir.StageName { return st.name }

// InitAction returns the action recorded when the stage starts.
func (st *Stage[S]) InitAction() ir.ActionKind { return st.initAction }

// State returns a copy of the current state.
func (st *Stage[S]) State() S { return st.current.Clone() }

// Initial returns a copy of the state Reset restores.
func (st *Stage[S]) Initial() S { return st.initial.Clone() }

// Prompt returns the text for the last action.
func (st *Stage[S]) Prompt() string { return st.prompt }

// Awaiting reports whether the stage is asking the learner to confirm
// (after Continue or Submit).
func (st *Stage[S]) Awaiting() bool { return st.awaiting }

// HistoryDepth returns the number of undoable and redoable states.
func (st *Stage[S]) HistoryDepth() (undo, redo int) {
	return st.history.UndoCount(), st.history.RedoCount()
}

// Actions lists the actions this stage accepts, in a stable order.
func (st *Stage[S]) Actions() []ir.ActionKind {
	out := []ir.ActionKind{ir.ActionUndo, ir.ActionRedo, ir.ActionReset}
	for _, k := range ir.AllActions() {
		if _, ok := st.actions[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
