package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against one store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and trace.
	// Supported types: final_ids, last_id, count, op_count
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a single store or codec operation.
type Step struct {
	// Op is the operation name (add, list, search, show, update, delete,
	// clear, save, load, seed).
	Op string `yaml:"op"`

	// Args holds operation arguments. Numbers may be given as YAML ints or
	// as raw strings, which are parsed the way user input is.
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, no validation is performed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior.
type ExpectClause struct {
	// Outcome is the expected outcome (ok, validation, not_found, io).
	// Empty means ok.
	Outcome string `yaml:"outcome,omitempty"`

	// ID is the expected minted or returned id (add, show).
	ID int64 `yaml:"id,omitempty"`

	// IDs is the expected id sequence (list, search, load).
	IDs []int64 `yaml:"ids,omitempty"`
}

// Assertion validates final state or the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_ids": store lists exactly IDs, in order
	// - "last_id": counter equals Value
	// - "count": store holds Value records
	// - "op_count": Op appears Value times in the trace
	Type string `yaml:"type"`

	// IDs is the expected id order (final_ids).
	IDs []int64 `yaml:"ids,omitempty"`

	// Value is the expected number (last_id, count, op_count).
	Value int64 `yaml:"value,omitempty"`

	// Op is the operation to count (op_count).
	Op string `yaml:"op,omitempty"`
}

// Operation names.
const (
	OpAdd    = "add"
	OpList   = "list"
	OpSearch = "search"
	OpShow   = "show"
	OpUpdate = "update"
	OpDelete = "delete"
	OpClear  = "clear"
	OpSave   = "save"
	OpLoad   = "load"
	OpSeed   = "seed"
)

// Assertion type constants.
const (
	AssertFinalIDs = "final_ids"
	AssertLastID   = "last_id"
	AssertCount    = "count"
	AssertOpCount  = "op_count"
)

var knownOps = map[string]bool{
	OpAdd: true, OpList: true, OpSearch: true, OpShow: true, OpUpdate: true,
	OpDelete: true, OpClear: true, OpSave: true, OpLoad: true, OpSeed: true,
}

var knownOutcomes = map[string]bool{
	"": true, OutcomeOK: true, OutcomeValidation: true, OutcomeNotFound: true, OutcomeIO: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if !knownOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Expect != nil && !knownOutcomes[step.Expect.Outcome] {
			return fmt.Errorf("steps[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalIDs:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids is required for final_ids (use [] for empty)", index)
		}
	case AssertLastID, AssertCount:
		if a.Value < 0 {
			return fmt.Errorf("assertions[%d]: value must be non-negative for %s", index, a.Type)
		}
	case AssertOpCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for op_count", index)
		}
		if a.Value < 0 {
			return fmt.Errorf("assertions[%d]: value must be non-negative for op_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
