// Package harness runs roster conformance scenarios.
//
// A scenario drives a fresh store and file codec through a list of steps,
// checks each step's outcome, and evaluates assertions on the final state.
// Every step is recorded in a trace that can be compared against a golden
// file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	steps:
//	  - op: add
//	    args: { name: Ana, email: a@x.com, program: CS, year: 2023 }
//	    expect: { outcome: ok, id: 1 }
//	  - op: delete
//	    args: { id: 1 }
//	  - op: seed
//	    args: { records: "1;Ana;a@x.com;CS;2023\n", checkpoint: "1" }
//	  - op: load
//	    expect: { ids: [1] }
//	assertions:
//	  - type: final_ids
//	    ids: [1]
//	  - type: last_id
//	    value: 1
//
// # Operations
//
// add, list, search, show, update, delete and clear call the store; save
// and load call the file codec; seed writes raw record and checkpoint files
// so load can be exercised on hand-written content.
//
// # Outcomes
//
// Each step ends in one of: ok, validation, not_found, io. A step without
// an expect clause is not checked. An expect clause without an outcome
// expects ok.
//
// # Assertion Types
//
//   - final_ids: the store lists exactly these ids, in order
//   - last_id: the store's counter equals value
//   - count: the store holds value records
//   - op_count: op appears in the trace value times
//
// # Deterministic Testing
//
// Steps are numbered from 1 and each scenario runs in its own temporary
// directory, so traces are identical across runs.
package harness
