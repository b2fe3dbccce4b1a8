package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/heaplab/internal/ir"
)

// Scenario is a scripted learner session with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Array is the bootstrap array.
	Array []int `yaml:"array"`

	// RunID fixes the run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// HistoryLimit caps undo depth per stage. 0 is unbounded.
	HistoryLimit int `yaml:"history_limit,omitempty"`

	Steps []Step `yaml:"steps"`

	// Assertions check the final session and the recorded trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Step dispatches one action.
type Step struct {
	Action string `yaml:"action"`

	// Expect is "ok" (the default), a violation kind, "StageComplete" or
	// "UnknownAction".
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates the final session or trace.
type Assertion struct {
	// Type is one of heap_data, final_array, selected_node, stage, history,
	// trace_count, trace_order.
	Type string `yaml:"type"`

	// Stage selects the stage for heap_data and selected_node (default:
	// the active stage) and is the expected stage for stage.
	Stage string `yaml:"stage,omitempty"`

	// Values is the expected heap (heap_data) or output (final_array).
	Values []int `yaml:"values,omitempty"`

	// Node is the expected selection; Unset expects no selection.
	Node  *int `yaml:"node,omitempty"`
	Unset bool `yaml:"unset,omitempty"`

	// Submitted optionally accompanies a stage assertion.
	Submitted *bool `yaml:"submitted,omitempty"`

	// Undo and Redo are the expected history depths.
	Undo *int `yaml:"undo,omitempty"`
	Redo *int `yaml:"redo,omitempty"`

	// Action and Count are used by trace_count.
	Action string `yaml:"action,omitempty"`
	Count  int    `yaml:"count,omitempty"`

	// Actions is the expected subsequence for trace_order.
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertHeapData     = "heap_data"
	AssertFinalArray   = "final_array"
	AssertSelectedNode = "selected_node"
	AssertStage        = "stage"
	AssertHistory      = "history"
	AssertTraceCount   = "trace_count"
	AssertTraceOrder   = "trace_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Array) == 0 {
		return fmt.Errorf("array is required")
	}
	if s.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, step := range s.Steps {
		if step.Action == "" {
			return fmt.Errorf("steps[%d]: action is required", i)
		}
		if !validExpect(step.Expect) {
			return fmt.Errorf("steps[%d]: unknown expect %q", i, step.Expect)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a, i); err != nil {
			return err
		}
	}
	return nil
}

func validExpect(expect string) bool {
	switch expect {
	case "", OutcomeOK, OutcomeStageComplete, OutcomeUnknownAction, OutcomeNoPendingConfirmation:
		return true
	}
	for _, k := range violationKinds() {
		if expect == k {
			return true
		}
	}
	return false
}

func validateAssertion(a Assertion, index int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Stage != "" && !ir.StageName(a.Stage).Valid() {
		return fmt.Errorf("assertions[%d]: unknown stage %q", index, a.Stage)
	}

	switch a.Type {
	case AssertHeapData, AssertFinalArray:
		if a.Values == nil {
			return fmt.Errorf("assertions[%d]: values is required for %s", index, a.Type)
		}
	case AssertSelectedNode:
		if (a.Node == nil) == !a.Unset {
			return fmt.Errorf("assertions[%d]: exactly one of node or unset is required for selected_node", index)
		}
	case AssertStage:
		if a.Stage == "" {
			return fmt.Errorf("assertions[%d]: stage is required for stage", index)
		}
	case AssertHistory:
		if a.Undo == nil && a.Redo == nil {
			return fmt.Errorf("assertions[%d]: undo or redo is required for history", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
