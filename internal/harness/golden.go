package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/heaplab/internal/ir"
)

// Snapshot builds the canonical object compared against golden files:
// the scenario name, every step outcome and the recorded trace.
// Transition ids are left out; they are checked by replay instead.
func Snapshot(scenarioName string, result *Result) ir.Object {
	outcomes := make(ir.Array, len(result.Outcomes))
	for i, o := range result.Outcomes {
		outcomes[i] = ir.Object{
			"action":  ir.String(o.Action),
			"outcome": ir.String(o.Outcome),
		}
	}

	trace := make(ir.Array, len(result.Trace))
	for i, e := range result.Trace {
		trace[i] = ir.Object{
			"seq":       ir.Int(e.Seq),
			"stage":     ir.String(e.Stage),
			"action":    ir.String(e.Action),
			"timestamp": ir.Int(e.Timestamp),
			"pre":       e.Pre,
			"post":      e.Post,
		}
	}

	return ir.Object{
		"scenario_name": ir.String(scenarioName),
		"outcomes":      outcomes,
		"trace":         trace,
	}
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(Snapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
