package testutil

// FixedRunIDGenerator returns the same run id every time.
// Satisfies engine.RunIDGenerator.
//
// Scenario files set it with:
//
//	run_id: "run-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate returns "test-run-default".
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator for id.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
