package ir

// StageName identifies one of the two sequential parts of an experiment.
type StageName string

const (
	StageHeapify StageName = "heapify"
	StageSort    StageName = "sort"
)

// Valid reports whether s names a known stage.
func (s StageName) Valid() bool {
	return s == StageHeapify || s == StageSort
}

// ActionKind is the recorded name of a user action. The string values are
// the wire names sent to the run-logging service.
type ActionKind string

// Actions shared by both stages.
const (
	ActionUndo  ActionKind = "Undo"
	ActionRedo  ActionKind = "Redo"
	ActionReset ActionKind = "Reset"
)

// Heapify stage actions.
const (
	ActionInitHeapify     ActionKind = "InitHeapify"
	ActionContinue        ActionKind = "Continue"
	ActionCancelContinue  ActionKind = "CancelContinue"
	ActionConfirmContinue ActionKind = "ConfirmContinue"
	ActionIncrementIndex  ActionKind = "IncrementIndex"
	ActionAddNode         ActionKind = "AddNode"
	ActionSwapWithParent  ActionKind = "SwapWithParent"
)

// Sort stage actions.
const (
	ActionInitSort         ActionKind = "InitSort"
	ActionSubmit           ActionKind = "Submit"
	ActionCancelSubmit     ActionKind = "CancelSubmit"
	ActionConfirmSubmit    ActionKind = "ConfirmSubmit"
	ActionSwapRootAndEnd   ActionKind = "SwapRootAndEnd"
	ActionPushEndAndDelete ActionKind = "PushEndAndDelete"
	ActionHeapify          ActionKind = "Heapify"
)

// ParseActionKind matches s against the known action names.
func ParseActionKind(s string) (ActionKind, bool) {
	for _, k := range AllActions() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// AllActions lists every action kind in a stable order.
func AllActions() []ActionKind {
	return []ActionKind{
		ActionInitHeapify, ActionUndo, ActionRedo, ActionReset,
		ActionContinue, ActionCancelContinue, ActionConfirmContinue,
		ActionIncrementIndex, ActionAddNode, ActionSwapWithParent,
		ActionInitSort, ActionSubmit, ActionCancelSubmit, ActionConfirmSubmit,
		ActionSwapRootAndEnd, ActionPushEndAndDelete, ActionHeapify,
	}
}

// Stage returns the stage that owns k. Undo, Redo and Reset belong to both
// and return "".
func (k ActionKind) Stage() StageName {
	switch k {
	case ActionInitHeapify, ActionContinue, ActionCancelContinue, ActionConfirmContinue,
		ActionIncrementIndex, ActionAddNode, ActionSwapWithParent:
		return StageHeapify
	case ActionInitSort, ActionSubmit, ActionCancelSubmit, ActionConfirmSubmit,
		ActionSwapRootAndEnd, ActionPushEndAndDelete, ActionHeapify:
		return StageSort
	default:
		return ""
	}
}
