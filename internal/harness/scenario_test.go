package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s := loadTestScenario(t, "heapify_three")

	assert.Equal(t, "heapify_three", s.Name)
	assert.Equal(t, []int{5, 3, 8}, s.Array)
	assert.Len(t, s.Steps, 9)
	assert.Equal(t, "NoValidParent", s.Steps[4].Expect)
	require.NotNil(t, s.Assertions[2].Node)
	assert.Equal(t, 2, *s.Assertions[2].Node)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: s\narray: [1]\nsteps:\n  - action: AddNode\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "s", s.Name)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\narray: [1]\nstep:\n  - action: AddNode\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "array: [1]\nsteps:\n  - action: AddNode\n",
			want: "name is required",
		},
		{
			name: "missing array",
			yaml: "name: x\nsteps:\n  - action: AddNode\n",
			want: "array is required",
		},
		{
			name: "no steps",
			yaml: "name: x\narray: [1]\n",
			want: "at least one step",
		},
		{
			name: "bad expect",
			yaml: "name: x\narray: [1]\nsteps:\n  - action: AddNode\n    expect: Boom\n",
			want: `unknown expect "Boom"`,
		},
		{
			name: "heap_data without values",
			yaml: "name: x\narray: [1]\nsteps:\n  - action: AddNode\nassertions:\n  - type: heap_data\n",
			want: "values is required",
		},
		{
			name: "selected_node with both",
			yaml: "name: x\narray: [1]\nsteps:\n  - action: AddNode\nassertions:\n  - type: selected_node\n    node: 0\n    unset: true\n",
			want: "exactly one of node or unset",
		},
		{
			name: "bad stage",
			yaml: "name: x\narray: [1]\nsteps:\n  - action: AddNode\nassertions:\n  - type: stage\n    stage: merge\n",
			want: `unknown stage "merge"`,
		},
		{
			name: "unknown assertion",
			yaml: "name: x\narray: [1]\nsteps:\n  - action: AddNode\nassertions:\n  - type: final_state\n",
			want: `unknown assertion type "final_state"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
