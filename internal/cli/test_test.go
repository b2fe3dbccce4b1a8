package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const passingScenario = `name: add_one
array: [4, 2]
steps:
  - action: AddNode
assertions:
  - type: heap_data
    values: [4]
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeRoot(t, "", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := executeRoot(t, "", "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := executeRoot(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandBundledScenarios(t *testing.T) {
	out, err := executeRoot(t, "", "test", harnessScenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ sort_two")
	assert.Contains(t, out, "✓ heapify_three")
	assert.Contains(t, out, "✓ undo_redo")
	assert.Contains(t, out, "✓ confirm_gate")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := executeRoot(t, "", "test", harnessScenarios, "--filter", "sort_*", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "sort_two", resp.Data.Scenarios[0].Name)
}

func TestTestCommandFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenarios")
	writeScenario(t, dir, "good.yaml", passingScenario)
	writeScenario(t, dir, "bad.yaml", `name: bad
array: [4, 2]
steps:
  - action: SwapWithParent
`)
	writeScenario(t, dir, "notes.txt", "ignored")

	out, err := executeRoot(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ bad")
	assert.Contains(t, out, "expected ok, got NoValidParent")
	assert.Contains(t, out, "✓ add_one")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "scenarios")
	writeScenario(t, dir, "add_one.yaml", passingScenario)

	out, err := executeRoot(t, "", "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ add_one (golden updated)")

	goldenPath := filepath.Join(root, "golden", "add_one.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"add_one"`)

	_, err = executeRoot(t, "", "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}"), 0o644))
	out, err = executeRoot(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\narray: [1]\n")

	out, err := executeRoot(t, "", "test", dir, "--format", "json")
	require.Error(t, err)

	var resp struct {
		Data  TestResult `json:"data"`
		Error *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeScenarioFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "broken.yaml", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "at least one step")
}
