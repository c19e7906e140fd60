package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: add_then_list
description: "Add one record and list it"
steps:
  - op: add
    args: {name: Ana, email: a@x.com, program: CS, year: 2023}
    expect: {id: 1}
  - op: list
    expect: {ids: [1]}
assertions:
  - type: last_id
    value: 1
`

const failingScenario = `
name: wrong_count
description: "Assertion that does not hold"
steps:
  - op: add
    args: {name: Ana, email: a@x.com, program: CS, year: 2023}
assertions:
  - type: count
    value: 2
`

// scenarioDirs creates <tmp>/scenarios and returns it with its sibling golden dir.
func scenarioDirs(t *testing.T) (string, string) {
	t.Helper()
	tmpDir := t.TempDir()
	scenariosDir := filepath.Join(tmpDir, "scenarios")
	require.NoError(t, os.MkdirAll(scenariosDir, 0755))
	return scenariosDir, filepath.Join(tmpDir, "golden")
}

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	scenariosDir, _ := scenarioDirs(t)

	out, err := runTestCommand(t, "text", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	scenariosDir, _ := scenarioDirs(t)

	out, err := runTestCommand(t, "json", scenariosDir)
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandPassingScenario(t *testing.T) {
	scenariosDir, _ := scenarioDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(scenariosDir, "add_then_list.yaml"), []byte(passingScenario), 0644))

	out, err := runTestCommand(t, "text", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ add_then_list")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	scenariosDir, _ := scenarioDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(scenariosDir, "add_then_list.yaml"), []byte(passingScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(scenariosDir, "wrong_count.yaml"), []byte(failingScenario), 0644))

	out, err := runTestCommand(t, "json", scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeTestFailed, response.Error.Code)
	assert.Equal(t, 1, response.Data.Passed)
	assert.Equal(t, 1, response.Data.Failed)
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	scenariosDir, goldenDir := scenarioDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(scenariosDir, "add_then_list.yaml"), []byte(passingScenario), 0644))

	out, err := runTestCommand(t, "text", scenariosDir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	goldenPath := filepath.Join(goldenDir, "add_then_list.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "add_then_list"`)

	_, err = runTestCommand(t, "text", scenariosDir)
	require.NoError(t, err)

	// A tampered golden file is a failure.
	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	out, err = runTestCommand(t, "text", scenariosDir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandRepositoryScenarios(t *testing.T) {
	out, err := runTestCommand(t, "text", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestHelpText(t *testing.T) {
	out, err := runTestCommand(t, "text", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "conformance")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test2.yml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ignore.txt"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "load-missing.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "load-malformed.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "add-basic.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "load-*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	for _, f := range files {
		assert.Contains(t, filepath.Base(f), "load-")
	}
}

func TestFindScenarioFilesSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "sub.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenarios/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenarios/scenario.yml", "/path/to/golden/scenario.golden"},
		{"testdata/scenarios/test.yaml", "testdata/golden/test.golden"},
	}

	for _, tc := range testCases {
		result := goldenFilePath(tc.input)
		assert.Equal(t, tc.expected, result)
	}
}
