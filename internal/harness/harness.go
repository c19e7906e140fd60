package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/roster/internal/codec"
	"github.com/roach88/roster/internal/roster"
)

// Harness is the test execution engine.
// It runs scenario steps against one store and one file codec.
type Harness struct {
	store  *roster.Store
	codec  *codec.FileCodec
	seq    int64
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh store and a fresh temporary directory
// for isolation. A non-nil error means the harness itself failed (for
// example the temp dir could not be created); scenario failures are
// reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "roster-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store: roster.NewStore(),
		codec: codec.NewFileCodec(
			filepath.Join(dir, codec.DefaultRecordsPath),
			filepath.Join(dir, codec.DefaultCheckpointPath),
			logger,
		),
		logger: logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		event := h.execute(step)
		result.AddTrace(event)

		if msg := checkExpect(i, step, event); msg != "" {
			result.AddError(msg)
		}
	}

	for _, rec := range h.store.List() {
		result.FinalIDs = append(result.FinalIDs, rec.ID)
	}
	result.LastID = h.store.LastID()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// execute runs one step and returns its trace event.
func (h *Harness) execute(step Step) TraceEvent {
	h.seq++
	event := TraceEvent{Seq: h.seq, Op: step.Op}

	err := h.dispatch(step, &event)
	event.Outcome = classify(err)
	if err != nil {
		event.Error = err.Error()
	}
	return event
}

func (h *Harness) dispatch(step Step, event *TraceEvent) error {
	args := step.Args

	switch step.Op {
	case OpAdd:
		f, err := fieldsArg(args)
		if err != nil {
			return err
		}
		rec, err := h.store.Add(f)
		if err != nil {
			return err
		}
		event.ID = rec.ID

	case OpList:
		event.IDs = recordIDs(h.store.List())

	case OpSearch:
		recs, err := h.store.Search(stringArg(args, "term"))
		if err != nil {
			return err
		}
		event.IDs = recordIDs(recs)

	case OpShow:
		id, err := idArg(args)
		if err != nil {
			return err
		}
		event.ID = id
		if _, err := h.store.Get(id); err != nil {
			return err
		}

	case OpUpdate:
		id, err := idArg(args)
		if err != nil {
			return err
		}
		event.ID = id
		f, err := fieldsArg(args)
		if err != nil {
			return err
		}
		return h.store.Update(id, f)

	case OpDelete:
		id, err := idArg(args)
		if err != nil {
			return err
		}
		event.ID = id
		return h.store.Delete(id)

	case OpClear:
		h.store.Clear()

	case OpSave:
		return h.codec.Save(h.store)

	case OpLoad:
		if _, err := h.codec.Load(h.store); err != nil {
			return err
		}
		event.IDs = recordIDs(h.store.List())

	case OpSeed:
		return h.seed(args)

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

// seed writes raw artifact content. A key that is absent leaves the file
// alone; a null value removes it.
func (h *Harness) seed(args map[string]interface{}) error {
	targets := []struct {
		key  string
		path string
	}{
		{"records", h.codec.RecordsPath},
		{"checkpoint", h.codec.CheckpointPath},
	}
	for _, t := range targets {
		v, ok := args[t.key]
		if !ok {
			continue
		}
		if v == nil {
			if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
				return &codec.IOError{Op: "remove", Path: t.path, Err: err}
			}
			continue
		}
		if err := os.WriteFile(t.path, []byte(fmt.Sprint(v)), 0o644); err != nil {
			return &codec.IOError{Op: "write", Path: t.path, Err: err}
		}
	}
	return nil
}

// classify maps an error to a step outcome.
func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case roster.IsValidation(err):
		return OutcomeValidation
	case roster.IsNotFound(err):
		return OutcomeNotFound
	default:
		return OutcomeIO
	}
}

// checkExpect compares a step's event with its expect clause.
// Returns an empty string when the step matches.
func checkExpect(index int, step Step, event TraceEvent) string {
	if step.Expect == nil {
		return ""
	}
	want := step.Expect.Outcome
	if want == "" {
		want = OutcomeOK
	}
	if event.Outcome != want {
		msg := fmt.Sprintf("step %d (%s): expected outcome %s, got %s", index+1, step.Op, want, event.Outcome)
		if event.Error != "" {
			msg += ": " + event.Error
		}
		return msg
	}
	if step.Expect.ID != 0 && event.ID != step.Expect.ID {
		return fmt.Sprintf("step %d (%s): expected id %d, got %d", index+1, step.Op, step.Expect.ID, event.ID)
	}
	if step.Expect.IDs != nil && !slices.Equal(step.Expect.IDs, event.IDs) && !(len(step.Expect.IDs) == 0 && len(event.IDs) == 0) {
		return fmt.Sprintf("step %d (%s): expected ids %v, got %v", index+1, step.Op, step.Expect.IDs, event.IDs)
	}
	return ""
}

func recordIDs(recs []roster.Record) []int64 {
	ids := make([]int64, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids
}

func stringArg(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// intArg reads a positive integer argument. YAML ints are taken as is;
// anything else is parsed like raw user input.
func intArg(args map[string]interface{}, key string) (int64, error) {
	switch v := args[key].(type) {
	case int:
		if v <= 0 {
			return 0, validationFor(key)
		}
		return int64(v), nil
	case int64:
		if v <= 0 {
			return 0, validationFor(key)
		}
		return v, nil
	default:
		return roster.ParsePositive(key, stringArg(args, key))
	}
}

func validationFor(key string) error {
	_, err := roster.ParsePositive(key, "0")
	return err
}

func idArg(args map[string]interface{}) (int64, error) {
	return intArg(args, "id")
}

func fieldsArg(args map[string]interface{}) (roster.Fields, error) {
	year, err := intArg(args, "year")
	if err != nil {
		return roster.Fields{}, err
	}
	return roster.Fields{
		Name:           stringArg(args, "name"),
		Email:          stringArg(args, "email"),
		Program:        stringArg(args, "program"),
		EnrollmentYear: year,
	}, nil
}
