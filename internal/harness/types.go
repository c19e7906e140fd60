package harness

// Step outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeNotFound   = "not_found"
	OutcomeIO         = "io"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int64   `json:"seq"`
	Op      string  `json:"op"`
	Outcome string  `json:"outcome"`
	ID      int64   `json:"id,omitempty"`  // minted or targeted id
	IDs     []int64 `json:"ids,omitempty"` // listed, matched or loaded ids
	Error   string  `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// FinalIDs and LastID capture the store after the last step.
	FinalIDs []int64 `json:"final_ids"`
	LastID   int64   `json:"last_id"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		FinalIDs: []int64{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an executed step to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
