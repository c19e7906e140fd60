package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/roster/internal/codec"
	"github.com/roach88/roster/internal/config"
	"github.com/roach88/roster/internal/roster"
	"github.com/roach88/roster/internal/store"
)

// Persister saves and restores a roster. Both the file codec and the SQLite
// store satisfy it.
type Persister interface {
	Save(s *roster.Store) error
	Load(s *roster.Store) (codec.LoadReport, error)
}

var (
	_ Persister = (*codec.FileCodec)(nil)
	_ Persister = (*store.Store)(nil)
)

// session is one in-memory roster bound to its persistence backend.
type session struct {
	store     *roster.Store
	persister Persister
	backend   string
	location  string
	logger    *slog.Logger
	close     func() error
}

// openSession resolves config and opens the selected backend.
// The caller must call Close.
func openSession(opts *RootOptions, logger *slog.Logger) (*session, error) {
	cfg, err := opts.resolveConfig()
	if err != nil {
		return nil, err
	}

	s := &session{
		store:   roster.NewStore(),
		backend: cfg.Backend,
		logger:  logger,
		close:   func() error { return nil },
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		st, err := store.Open(cfg.Database)
		if err != nil {
			return nil, &codec.IOError{Op: "open", Path: cfg.Database, Err: err}
		}
		st.Logger = logger
		s.persister = st
		s.location = cfg.Database
		s.close = st.Close
	default:
		s.persister = codec.NewFileCodec(cfg.Records, cfg.Checkpoint, logger)
		s.location = cfg.Records
	}

	logger.Debug("session opened", "backend", s.backend, "location", s.location)
	return s, nil
}

// Load replaces the in-memory roster with the persisted one.
func (s *session) Load() (codec.LoadReport, error) {
	report, err := s.persister.Load(s.store)
	if err != nil {
		return report, err
	}
	s.logger.Debug("roster loaded", "records", report.Loaded, "skipped", len(report.Skipped), "last_id", report.LastID)
	return report, nil
}

// Save persists the in-memory roster.
func (s *session) Save() error {
	return s.persister.Save(s.store)
}

// Close releases the backend.
func (s *session) Close() error {
	return s.close()
}

// classifyError maps an error to its JSON error code and process exit code.
func classifyError(err error) (string, int) {
	var cfgErr *config.Error
	switch {
	case roster.IsValidation(err):
		return ErrCodeValidation, ExitFailure
	case roster.IsNotFound(err):
		return ErrCodeNotFound, ExitFailure
	case codec.IsIOError(err):
		return ErrCodeIO, ExitCommandError
	case errors.As(err, &cfgErr):
		return ErrCodeConfig, ExitCommandError
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}

// errorDetails extracts structured context for the JSON error payload.
func errorDetails(err error) interface{} {
	var re *roster.Error
	if errors.As(err, &re) {
		details := map[string]interface{}{}
		if re.Field != "" {
			details["field"] = re.Field
		}
		if re.ID != 0 {
			details["id"] = re.ID
		}
		return details
	}
	var ioErr *codec.IOError
	if errors.As(err, &ioErr) {
		return map[string]interface{}{"op": ioErr.Op, "path": ioErr.Path}
	}
	return nil
}

// fail reports err through the formatter and returns the matching ExitError.
func fail(f *OutputFormatter, err error) error {
	code, exit := classifyError(err)
	_ = f.Error(code, err.Error(), errorDetails(err))
	exitErr := WrapExitError(exit, code, err)
	exitErr.Silent = true
	return exitErr
}

// runWithStore loads the roster, runs op, and saves afterwards when mutate
// is set and op succeeded. op's result is written through the formatter.
func runWithStore(opts *RootOptions, cmd *cobra.Command, mutate bool, op func(*roster.Store) (interface{}, error)) error {
	f := opts.newFormatter(cmd)
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr()).With("trace_id", f.TraceID)

	sess, err := openSession(opts, logger)
	if err != nil {
		return fail(f, err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Error("error closing backend", "error", closeErr)
		}
	}()

	report, err := sess.Load()
	if err != nil {
		return fail(f, err)
	}
	if len(report.Skipped) > 0 {
		f.VerboseLog("Skipped %d malformed record(s) while loading %s", len(report.Skipped), sess.location)
	}

	data, err := op(sess.store)
	if err != nil {
		return fail(f, err)
	}

	if mutate {
		if err := sess.Save(); err != nil {
			return fail(f, fmt.Errorf("changes not saved: %w", err))
		}
	}

	return f.Success(data)
}
