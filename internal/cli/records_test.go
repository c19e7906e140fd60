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

type cliRun struct {
	stdout string
	stderr string
	err    error
}

// runRoster executes the root command with the file backend rooted in dir.
func runRoster(t *testing.T, dir string, args ...string) cliRun {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{
		"--records", filepath.Join(dir, "registros.csv"),
		"--checkpoint", filepath.Join(dir, "ultimo_id.txt"),
	}, args...))

	err := cmd.Execute()
	return cliRun{stdout: out.String(), stderr: errOut.String(), err: err}
}

func addArgs(name, email, program, year string) []string {
	return []string{"add", "--name", name, "--email", email, "--program", program, "--year", year}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCommands_DeleteSaveReload(t *testing.T) {
	dir := t.TempDir()

	r := runRoster(t, dir, addArgs("Ana", "a@x.com", "CS", "2023")...)
	require.NoError(t, r.err)
	assert.Equal(t, "1 - Ana - a@x.com - CS - 2023\n", r.stdout)
	assert.Contains(t, r.stderr, "no record file found")

	r = runRoster(t, dir, addArgs("Bo", "b@x.com", "Math", "2022")...)
	require.NoError(t, r.err)
	assert.Equal(t, "2 - Bo - b@x.com - Math - 2022\n", r.stdout)

	r = runRoster(t, dir, "delete", "1")
	require.NoError(t, r.err)
	assert.Equal(t, "Deleted record 1\n", r.stdout)

	r = runRoster(t, dir, "list")
	require.NoError(t, r.err)
	assert.Equal(t, "2 - Bo - b@x.com - Math - 2022\n", r.stdout)

	r = runRoster(t, dir, addArgs("Cy", "c@x.com", "Bio", "2024")...)
	require.NoError(t, r.err)
	assert.Equal(t, "3 - Cy - c@x.com - Bio - 2024\n", r.stdout)

	assert.Equal(t, "2;Bo;b@x.com;Math;2022\n3;Cy;c@x.com;Bio;2024\n", readFile(t, filepath.Join(dir, "registros.csv")))
	assert.Equal(t, "3", readFile(t, filepath.Join(dir, "ultimo_id.txt")))
}

func TestCommands_DeletedMaxIDNotReused(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runRoster(t, dir, addArgs("Ana", "a@x.com", "CS", "2023")...).err)
	require.NoError(t, runRoster(t, dir, addArgs("Bo", "b@x.com", "Math", "2022")...).err)
	require.NoError(t, runRoster(t, dir, "delete", "2").err)

	r := runRoster(t, dir, addArgs("Cy", "c@x.com", "Bio", "2024")...)
	require.NoError(t, r.err)
	assert.Equal(t, "3 - Cy - c@x.com - Bio - 2024\n", r.stdout)
}

func TestCommands_ListEmpty(t *testing.T) {
	r := runRoster(t, t.TempDir(), "list")
	require.NoError(t, r.err)
	assert.Equal(t, "No records.\n", r.stdout)
}

func TestCommands_SearchShowUpdate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runRoster(t, dir, addArgs("Mariana Lopez", "ml@x.com", "Physics", "2019")...).err)
	require.NoError(t, runRoster(t, dir, addArgs("Ana", "a@x.com", "CS", "2023")...).err)

	r := runRoster(t, dir, "search", "ana")
	require.NoError(t, r.err)
	assert.Equal(t, "1 - Mariana Lopez - ml@x.com - Physics - 2019\n", r.stdout)

	r = runRoster(t, dir, "search", "2")
	require.NoError(t, r.err)
	assert.Equal(t, "2 - Ana - a@x.com - CS - 2023\n", r.stdout)

	r = runRoster(t, dir, "search", "zzz")
	require.NoError(t, r.err)
	assert.Equal(t, "No records.\n", r.stdout)

	r = runRoster(t, dir, "show", "2")
	require.NoError(t, r.err)
	assert.Equal(t, "2 - Ana - a@x.com - CS - 2023\n", r.stdout)

	r = runRoster(t, dir, "update", "1", "--name", "Mariana L", "--email", "m@x.com", "--program", "Math", "--year", "2020")
	require.NoError(t, r.err)
	assert.Equal(t, "1 - Mariana L - m@x.com - Math - 2020\n", r.stdout)

	r = runRoster(t, dir, "list")
	require.NoError(t, r.err)
	assert.Equal(t, "1 - Mariana L - m@x.com - Math - 2020\n2 - Ana - a@x.com - CS - 2023\n", r.stdout)
}

func TestCommands_DomainErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runRoster(t, dir, addArgs("Ana", "a@x.com", "CS", "2023")...).err)

	tests := []struct {
		name   string
		args   []string
		stdout string
	}{
		{"show unknown id", []string{"show", "9"}, "Error [E_NOT_FOUND]: NOT_FOUND: no record with that id (id=9)\n"},
		{"delete unknown id", []string{"delete", "9"}, "Error [E_NOT_FOUND]: NOT_FOUND: no record with that id (id=9)\n"},
		{"show non-numeric id", []string{"show", "abc"}, "Error [E_VALIDATION]: VALIDATION: id: must be a positive integer\n"},
		{"search empty term", []string{"search", ""}, "Error [E_VALIDATION]: VALIDATION: term: search term is empty\n"},
		{"add empty email", addArgs("Bo", " ", "Math", "2022"), "Error [E_VALIDATION]: VALIDATION: email: required field is empty\n"},
		{"add bad year", addArgs("Bo", "b@x.com", "Math", "0"), "Error [E_VALIDATION]: VALIDATION: enrollment_year: must be a positive integer\n"},
		{"update unknown id", []string{"update", "9", "--name", "Z", "--email", "z@x.com", "--program", "Art", "--year", "2020"}, "Error [E_NOT_FOUND]: NOT_FOUND: no record with that id (id=9)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runRoster(t, dir, tt.args...)
			require.Error(t, r.err)
			assert.Equal(t, ExitFailure, GetExitCode(r.err))
			assert.Equal(t, tt.stdout, r.stdout)
		})
	}

	// Nothing above touched storage.
	assert.Equal(t, "1;Ana;a@x.com;CS;2023\n", readFile(t, filepath.Join(dir, "registros.csv")))
	assert.Equal(t, "1", readFile(t, filepath.Join(dir, "ultimo_id.txt")))
}

func TestCommands_FailedAddDoesNotCreateFiles(t *testing.T) {
	dir := t.TempDir()

	r := runRoster(t, dir, addArgs("", "a@x.com", "CS", "2023")...)
	require.Error(t, r.err)

	assert.NoFileExists(t, filepath.Join(dir, "registros.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "ultimo_id.txt"))
}

func TestCommands_JSONEnvelope(t *testing.T) {
	dir := t.TempDir()

	r := runRoster(t, dir, append([]string{"--format", "json"}, addArgs("Ana", "a@x.com", "CS", "2023")...)...)
	require.NoError(t, r.err)

	var resp struct {
		Status  string `json:"status"`
		TraceID string `json:"trace_id"`
		Data    struct {
			ID             int64  `json:"id"`
			Name           string `json:"name"`
			EnrollmentYear int64  `json:"enrollment_year"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.TraceID)
	assert.Equal(t, int64(1), resp.Data.ID)
	assert.Equal(t, "Ana", resp.Data.Name)
	assert.Equal(t, int64(2023), resp.Data.EnrollmentYear)

	// Log lines carry the same trace id.
	assert.Contains(t, r.stderr, "trace_id="+resp.TraceID)

	r = runRoster(t, dir, "--format", "json", "search", "zzz")
	require.NoError(t, r.err)
	assert.JSONEq(t, `[]`, string(mustData(t, r.stdout)))

	r = runRoster(t, dir, "--format", "json", "delete", "7")
	require.Error(t, r.err)

	var errResp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &errResp))
	assert.Equal(t, "error", errResp.Status)
	require.NotNil(t, errResp.Error)
	assert.Equal(t, ErrCodeNotFound, errResp.Error.Code)
	assert.Equal(t, map[string]interface{}{"id": float64(7)}, errResp.Error.Details)
}

func mustData(t *testing.T, stdout string) json.RawMessage {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	return resp.Data
}

func TestCommands_MalformedLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "registros.csv"),
		[]byte("1;Ana;a@x.com;CS;2023\nnot a record\n5;Bo;b@x.com;Math;2022\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ultimo_id.txt"), []byte("2"), 0644))

	r := runRoster(t, dir, "list")
	require.NoError(t, r.err)
	assert.Equal(t, "1 - Ana - a@x.com - CS - 2023\n5 - Bo - b@x.com - Math - 2022\n", r.stdout)
	assert.Contains(t, r.stderr, "skipping malformed record")
	assert.Contains(t, r.stderr, "line=2")

	r = runRoster(t, dir, addArgs("Cy", "c@x.com", "Bio", "2024")...)
	require.NoError(t, r.err)
	assert.Equal(t, "6 - Cy - c@x.com - Bio - 2024\n", r.stdout)
}

func TestCommands_IOError(t *testing.T) {
	dir := t.TempDir()
	recordsDir := filepath.Join(dir, "registros.csv")
	require.NoError(t, os.MkdirAll(recordsDir, 0755))

	r := runRoster(t, dir, "list")
	require.Error(t, r.err)
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))
	assert.Contains(t, r.stdout, "Error [E_IO]")
}

func TestCommands_ConfigError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "roster.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`backend: "mongo"`), 0644))

	r := runRoster(t, dir, "--config", cfgPath, "list")
	require.Error(t, r.err)
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))
	assert.Contains(t, r.stdout, "Error [E_CONFIG]")

	r = runRoster(t, dir, "--config", filepath.Join(dir, "missing.cue"), "list")
	require.Error(t, r.err)
	assert.Contains(t, r.stdout, "file not found")
}

func TestCommands_SQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "roster.db")
	sqlite := []string{"--backend", "sqlite", "--db", dbPath}

	r := runRoster(t, dir, append(sqlite, addArgs("Ana", "a@x.com", "CS", "2023")...)...)
	require.NoError(t, r.err, r.stdout)
	require.NoError(t, runRoster(t, dir, append(sqlite, addArgs("Bo", "b@x.com", "Math", "2022")...)...).err)
	require.NoError(t, runRoster(t, dir, append(sqlite, "delete", "2")...).err)

	r = runRoster(t, dir, append(sqlite, addArgs("Cy", "c@x.com", "Bio", "2024")...)...)
	require.NoError(t, r.err)
	assert.Equal(t, "3 - Cy - c@x.com - Bio - 2024\n", r.stdout)

	r = runRoster(t, dir, append(sqlite, "list")...)
	require.NoError(t, r.err)
	assert.Equal(t, "1 - Ana - a@x.com - CS - 2023\n3 - Cy - c@x.com - Bio - 2024\n", r.stdout)

	assert.FileExists(t, dbPath)
	assert.NoFileExists(t, filepath.Join(dir, "registros.csv"))
}

func TestCommands_SQLiteFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "roster.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backend: \"sqlite\"\ndatabase: \"data.db\"\n"), 0644))

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", cfgPath}, addArgs("Ana", "a@x.com", "CS", "2023")...))
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "1 - Ana - a@x.com - CS - 2023\n", out.String())
	assert.FileExists(t, filepath.Join(dir, "data.db"))
}
