package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s -> %s", event.Seq, event.Op, event.Outcome)
			if event.Error != "" {
				fmt.Fprintf(&buf, " (%s)", event.Error)
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// assertFinalIDs checks that the store lists exactly the expected ids, in order.
func assertFinalIDs(result *Result, assertion Assertion) error {
	if slices.Equal(result.FinalIDs, assertion.IDs) {
		return nil
	}
	if len(result.FinalIDs) == 0 && len(assertion.IDs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalIDs,
		Expected: fmt.Sprintf("ids %v", assertion.IDs),
		Actual:   fmt.Sprintf("ids %v", result.FinalIDs),
		Trace:    result.Trace,
	}
}

// assertLastID checks the id counter after the last step.
func assertLastID(result *Result, assertion Assertion) error {
	if result.LastID == assertion.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertLastID,
		Expected: fmt.Sprintf("last id %d", assertion.Value),
		Actual:   fmt.Sprintf("last id %d", result.LastID),
		Trace:    result.Trace,
	}
}

// assertCount checks how many records the store holds.
func assertCount(result *Result, assertion Assertion) error {
	if int64(len(result.FinalIDs)) == assertion.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertCount,
		Expected: fmt.Sprintf("%d records", assertion.Value),
		Actual:   fmt.Sprintf("%d records", len(result.FinalIDs)),
		Trace:    result.Trace,
	}
}

// assertOpCount checks that an op appears exactly the specified number of times.
func assertOpCount(result *Result, assertion Assertion) error {
	var count int64
	for _, event := range result.Trace {
		if event.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Value {
		return &AssertionError{
			Type:     AssertOpCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Value, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    result.Trace,
		}
	}

	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFinalIDs:
			err = assertFinalIDs(result, assertion)
		case AssertLastID:
			err = assertLastID(result, assertion)
		case AssertCount:
			err = assertCount(result, assertion)
		case AssertOpCount:
			err = assertOpCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
