package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden_Scenarios -update
	for _, name := range []string{"delete_save_reload", "malformed_load", "missing_files", "validation_errors"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			err = RunWithGolden(t, scenario)
			require.NoError(t, err)
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/missing_files.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	err = AssertGolden(t, "missing_files", result)
	require.NoError(t, err)
}

func TestMarshalSnapshot_Determinism(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "determinism_test",
		Trace: []TraceEvent{
			{Seq: 1, Op: OpAdd, Outcome: OutcomeOK, ID: 1},
			{Seq: 2, Op: OpSearch, Outcome: OutcomeOK, IDs: []int64{1}},
		},
		FinalIDs: []int64{1},
		LastID:   1,
	}

	json1, err := MarshalSnapshot(snapshot)
	require.NoError(t, err)
	json2, err := MarshalSnapshot(snapshot)
	require.NoError(t, err)

	require.Equal(t, json1, json2, "snapshot JSON must be deterministic")
}

func TestMarshalSnapshot_Format(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "test_scenario",
		Trace: []TraceEvent{
			{Seq: 1, Op: OpDelete, Outcome: OutcomeNotFound, ID: 4, Error: "NOT_FOUND: no record with that id (id=4)"},
		},
		FinalIDs: []int64{},
	}

	data, err := MarshalSnapshot(snapshot)
	require.NoError(t, err)

	s := string(data)
	require.True(t, strings.HasSuffix(s, "}\n"))
	require.Contains(t, s, `"scenario_name": "test_scenario"`)
	require.Contains(t, s, `"outcome": "not_found"`)
	require.Contains(t, s, `"final_ids": []`)
	require.Contains(t, s, `"last_id": 0`)
	require.NotContains(t, s, `"ids"`)
}
