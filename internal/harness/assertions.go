package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/heaplab/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Stage, event.Action)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertHeapData:
		return assertHeapData(result, a)
	case AssertFinalArray:
		return assertFinalArray(result, a)
	case AssertSelectedNode:
		return assertSelectedNode(result, a)
	case AssertStage:
		return assertStage(result, a)
	case AssertHistory:
		return assertHistory(result, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// stageOf resolves the stage an assertion targets.
func stageOf(result *Result, a Assertion) ir.StageName {
	if a.Stage != "" {
		return ir.StageName(a.Stage)
	}
	return result.Stage
}

func assertHeapData(result *Result, a Assertion) error {
	var got []int
	switch stageOf(result, a) {
	case ir.StageSort:
		if result.Sort == nil {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Values), Actual: "sort stage not started"}
		}
		got = result.Sort.HeapData
	default:
		got = result.Heapify.HeapData
	}
	if !slices.Equal(got, a.Values) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Values), Actual: fmt.Sprint(got)}
	}
	return nil
}

func assertFinalArray(result *Result, a Assertion) error {
	if result.Sort == nil {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Values), Actual: "sort stage not started"}
	}
	if !slices.Equal(result.Sort.FinalArray, a.Values) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Values), Actual: fmt.Sprint(result.Sort.FinalArray)}
	}
	return nil
}

func assertSelectedNode(result *Result, a Assertion) error {
	var node ir.NodeRef
	switch stageOf(result, a) {
	case ir.StageSort:
		if result.Sort == nil {
			return &AssertionError{Type: a.Type, Expected: "sort stage", Actual: "sort stage not started"}
		}
		node = result.Sort.Node
	default:
		node = result.Heapify.Node
	}

	want := ir.NoNode
	if a.Node != nil {
		want = ir.Node(*a.Node)
	}
	if node != want {
		return &AssertionError{Type: a.Type, Expected: want.String(), Actual: node.String()}
	}
	return nil
}

func assertStage(result *Result, a Assertion) error {
	if result.Stage != ir.StageName(a.Stage) {
		return &AssertionError{Type: a.Type, Expected: a.Stage, Actual: string(result.Stage)}
	}
	if a.Submitted != nil && result.Submitted != *a.Submitted {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("submitted=%t", *a.Submitted),
			Actual:   fmt.Sprintf("submitted=%t", result.Submitted),
		}
	}
	return nil
}

func assertHistory(result *Result, a Assertion) error {
	if a.Undo != nil && result.Undo != *a.Undo {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("undo=%d", *a.Undo), Actual: fmt.Sprintf("undo=%d", result.Undo)}
	}
	if a.Redo != nil && result.Redo != *a.Redo {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("redo=%d", *a.Redo), Actual: fmt.Sprintf("redo=%d", result.Redo)}
	}
	return nil
}

// assertTraceCount checks the action was recorded exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if string(event.Action) == a.Action {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks the actions appear as a subsequence of the
// trace. Intervening actions are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Actions) && string(event.Action) == a.Actions[next] {
			next++
		}
	}
	if next < len(a.Actions) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("actions in order: %v", a.Actions),
			Actual:   fmt.Sprintf("matched %v, missing %s", a.Actions[:next], a.Actions[next]),
			Trace:    trace,
		}
	}
	return nil
}
