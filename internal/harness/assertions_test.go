package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/heaplab/internal/ir"
)

func intPtr(n int) *int { return &n }

func sampleResult() *Result {
	return &Result{
		Stage:   ir.StageSort,
		Heapify: ir.HeapifyState{Array: []int{2, 1}, Index: 1, HeapData: []int{1, 2}, Node: ir.Node(0)},
		Sort:    &ir.SortState{FinalArray: []int{1}, HeapData: []int{2}, Node: ir.Node(0)},
		Undo:    2,
		Redo:    1,
		Trace: []TraceEvent{
			{Seq: 1, Action: ir.ActionInitHeapify},
			{Seq: 2, Action: ir.ActionAddNode},
			{Seq: 3, Action: ir.ActionAddNode},
			{Seq: 4, Action: ir.ActionConfirmContinue},
			{Seq: 5, Action: ir.ActionInitSort},
		},
	}
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name string
		a    Assertion
		pass bool
	}{
		{"heap active stage", Assertion{Type: AssertHeapData, Values: []int{2}}, true},
		{"heap heapify stage", Assertion{Type: AssertHeapData, Stage: "heapify", Values: []int{1, 2}}, true},
		{"heap mismatch", Assertion{Type: AssertHeapData, Values: []int{}}, false},
		{"final array", Assertion{Type: AssertFinalArray, Values: []int{1}}, true},
		{"final array mismatch", Assertion{Type: AssertFinalArray, Values: []int{1, 2}}, false},
		{"node", Assertion{Type: AssertSelectedNode, Node: intPtr(0)}, true},
		{"node unset mismatch", Assertion{Type: AssertSelectedNode, Unset: true}, false},
		{"stage", Assertion{Type: AssertStage, Stage: "sort"}, true},
		{"stage mismatch", Assertion{Type: AssertStage, Stage: "heapify"}, false},
		{"history", Assertion{Type: AssertHistory, Undo: intPtr(2), Redo: intPtr(1)}, true},
		{"history mismatch", Assertion{Type: AssertHistory, Redo: intPtr(0)}, false},
		{"count", Assertion{Type: AssertTraceCount, Action: "AddNode", Count: 2}, true},
		{"count zero", Assertion{Type: AssertTraceCount, Action: "Undo", Count: 0}, true},
		{"count mismatch", Assertion{Type: AssertTraceCount, Action: "AddNode", Count: 1}, false},
		{"order", Assertion{Type: AssertTraceOrder, Actions: []string{"InitHeapify", "AddNode", "AddNode", "InitSort"}}, true},
		{"order repeated too often", Assertion{Type: AssertTraceOrder, Actions: []string{"AddNode", "AddNode", "AddNode"}}, false},
		{"order reversed", Assertion{Type: AssertTraceOrder, Actions: []string{"InitSort", "InitHeapify"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(sampleResult(), []Assertion{tt.a})
			if tt.pass {
				assert.Empty(t, failures)
			} else {
				assert.Len(t, failures, 1)
			}
		})
	}
}

func TestEvaluateAssertions_SortNotStarted(t *testing.T) {
	r := sampleResult()
	r.Sort = nil
	r.Stage = ir.StageHeapify

	failures := EvaluateAssertions(r, []Assertion{
		{Type: AssertFinalArray, Values: []int{}},
		{Type: AssertHeapData, Stage: "sort", Values: []int{}},
	})
	assert.Len(t, failures, 2)
	assert.Contains(t, failures[0], "sort stage not started")
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := assertTraceCount(sampleResult().Trace, Assertion{Type: AssertTraceCount, Action: "Undo", Count: 1})

	msg := err.Error()
	assert.Contains(t, msg, "Expected: 1 occurrences of Undo")
	assert.Contains(t, msg, "[5]  InitSort")
}
