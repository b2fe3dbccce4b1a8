package engine

import "github.com/roach88/heaplab/internal/ir"

// Prompt is the learner-facing text shown after an action.
type Prompt struct {
	Success string
	Failure string
}

var heapifyPrompts = map[ir.ActionKind]Prompt{
	ir.ActionInitHeapify:     {Success: "Experiment Initialised."},
	ir.ActionUndo:            {Success: "Undo successful.", Failure: "Nothing to undo."},
	ir.ActionRedo:            {Success: "Redo successful.", Failure: "Nothing to redo."},
	ir.ActionReset:           {Success: "Experiment reset to initial state."},
	ir.ActionContinue:        {Success: "Continue to next part of the experiment?"},
	ir.ActionCancelContinue:  {Success: ""},
	ir.ActionConfirmContinue: {Success: "Moving to next part of the experiment!"},
	ir.ActionIncrementIndex: {
		Success: "Value of 'index' increased by 1.",
		Failure: "Value of 'index' cannot be increased anymore.",
	},
	ir.ActionAddNode: {
		Success: "Element added to heap.",
		Failure: "Element could not be added to heap.",
	},
	ir.ActionSwapWithParent: {
		Success: "Swapped child node with parent node.",
		Failure: "Child node could not be swapped with parent node.",
	},
}

var sortPrompts = map[ir.ActionKind]Prompt{
	ir.ActionInitSort:      {Success: "Experiment Initialised."},
	ir.ActionUndo:          {Success: "Undo successful.", Failure: "Nothing to undo."},
	ir.ActionRedo:          {Success: "Redo successful.", Failure: "Nothing to redo."},
	ir.ActionReset:         {Success: "Experiment reset to initial state."},
	ir.ActionSubmit:        {Success: "Confirm submission?"},
	ir.ActionCancelSubmit:  {Success: "Submission cancelled."},
	ir.ActionConfirmSubmit: {Success: "Submission confirmed!"},
	ir.ActionSwapRootAndEnd: {
		Success: "Root node swapped with the end node.",
		Failure: "Could not swap root node with end node.",
	},
	ir.ActionPushEndAndDelete: {
		Success: "End node added to final array and removed from heap.",
		Failure: "Failed to add end node to final array and delete from heap.",
	},
	ir.ActionHeapify: {
		Success: "Performed heapify on the heap.",
		Failure: "Failed to perform heapify.",
	},
}

// PromptSubmitted is shown for any action after submission.
const PromptSubmitted = "Experiment already submitted."

// PromptNoPendingConfirmation is shown for Confirm or Cancel without a
// preceding Continue or Submit.
const PromptNoPendingConfirmation = "There is nothing to confirm or cancel."

// PromptUnknownAction is shown when the active stage has no such action.
const PromptUnknownAction = "That action is not available in this part of the experiment."
