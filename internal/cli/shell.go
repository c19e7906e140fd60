package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/roster/internal/codec"
	"github.com/roach88/roster/internal/roster"
)

const shellHelp = `Commands:
  add name;email;program;year       add a record
  list                              list all records
  search term                       find by id or name
  show id                           show one record
  update id;name;email;program;year replace a record's fields
  delete id                         delete a record
  save                              write the roster to storage
                                    (refused until storage loads cleanly)
  load                              reload the roster from storage
  help                              show this help
  quit                              leave (unsaved changes are discarded)`

// NewShellCommand creates the interactive shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive roster session",
		Long: `Open an interactive session over one in-memory roster.

The roster is loaded once at start. Changes stay in memory until
"save" is entered; "load" discards them and rereads storage.

` + shellHelp,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(rootOpts, cmd)
		},
	}
}

// shell holds the state of one interactive session.
type shell struct {
	sess  *session
	f     *OutputFormatter
	dirty bool

	// unloaded is set while storage holds data the session could not read.
	// save is refused until a load succeeds.
	unloaded bool
}

func runShell(opts *RootOptions, cmd *cobra.Command) error {
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

	sh := &shell{sess: sess, f: f}
	if _, err := sess.Load(); err != nil {
		// Keep going with an empty roster; the user can retry with "load".
		sh.report(err)
		sh.unloaded = true
	}

	return sh.loop(cmd.InOrStdin())
}

// loop reads commands until quit or end of input.
func (sh *shell) loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		sh.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !sh.exec(line) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, ErrCodeIO, err)
	}
	sh.discardNotice()
	return nil
}

func (sh *shell) prompt() {
	if sh.f.Format != "json" {
		fmt.Fprint(sh.f.Writer, "roster> ")
	}
}

// exec runs one shell line. It returns false when the session should end.
func (sh *shell) exec(line string) bool {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	s := sh.sess.store

	switch strings.ToLower(verb) {
	case "add":
		parts, ok := splitArgs(rest, 4)
		if !ok {
			sh.usage("add name;email;program;year")
			return true
		}
		f, err := shellFields(parts)
		if err != nil {
			sh.report(err)
			return true
		}
		rec, err := s.Add(f)
		if err != nil {
			sh.report(err)
			return true
		}
		sh.dirty = true
		sh.ok(rec)

	case "list":
		sh.ok(newRecordList(s.List()))

	case "search":
		recs, err := s.Search(rest)
		if err != nil {
			sh.report(err)
			return true
		}
		sh.ok(newRecordList(recs))

	case "show":
		id, err := roster.ParsePositive("id", rest)
		if err != nil {
			sh.report(err)
			return true
		}
		rec, err := s.Get(id)
		if err != nil {
			sh.report(err)
			return true
		}
		sh.ok(rec)

	case "update":
		parts, ok := splitArgs(rest, 5)
		if !ok {
			sh.usage("update id;name;email;program;year")
			return true
		}
		id, err := roster.ParsePositive("id", parts[0])
		if err != nil {
			sh.report(err)
			return true
		}
		f, err := shellFields(parts[1:])
		if err != nil {
			sh.report(err)
			return true
		}
		if err := s.Update(id, f); err != nil {
			sh.report(err)
			return true
		}
		sh.dirty = true
		rec, _ := s.Get(id)
		sh.ok(rec)

	case "delete":
		id, err := roster.ParsePositive("id", rest)
		if err != nil {
			sh.report(err)
			return true
		}
		if err := s.Delete(id); err != nil {
			sh.report(err)
			return true
		}
		sh.dirty = true
		sh.ok(deletedRecord{ID: id})

	case "save":
		if sh.unloaded {
			_ = sh.f.Error(ErrCodeIO, "storage could not be loaded; run load first, saving now would replace the stored roster", nil)
			return true
		}
		if err := sh.sess.Save(); err != nil {
			sh.report(err)
			return true
		}
		sh.dirty = false
		sh.ok(fmt.Sprintf("Saved %d record(s)", s.Len()))

	case "load":
		report, err := sh.sess.Load()
		sh.dirty = false
		sh.unloaded = err != nil
		if err != nil {
			sh.report(err)
			return true
		}
		sh.ok(loadSummary(report))

	case "help":
		sh.ok(shellHelp)

	case "quit", "exit":
		sh.discardNotice()
		return false

	default:
		sh.usage(fmt.Sprintf("unknown command %q (try help)", verb))
	}
	return true
}

func (sh *shell) ok(data interface{}) {
	_ = sh.f.Success(data)
}

func (sh *shell) report(err error) {
	code, _ := classifyError(err)
	_ = sh.f.Error(code, err.Error(), errorDetails(err))
}

func (sh *shell) usage(msg string) {
	_ = sh.f.Error(ErrCodeValidation, "usage: "+msg, nil)
}

func (sh *shell) discardNotice() {
	if sh.dirty {
		fmt.Fprintln(sh.f.GetErrWriter(), "Unsaved changes discarded")
	}
}

// loadSummary renders a load report in text mode.
type loadSummary codec.LoadReport

func (l loadSummary) String() string {
	msg := fmt.Sprintf("Loaded %d record(s), last id %d", l.Loaded, l.LastID)
	if len(l.Skipped) > 0 {
		msg += fmt.Sprintf(", skipped %d malformed line(s)", len(l.Skipped))
	}
	return msg
}

// splitArgs splits a semicolon-separated argument list into exactly n parts.
func splitArgs(s string, n int) ([]string, bool) {
	parts := strings.Split(s, ";")
	if len(parts) != n {
		return nil, false
	}
	return parts, true
}

func shellFields(parts []string) (roster.Fields, error) {
	year, err := roster.ParsePositive("enrollment_year", parts[3])
	if err != nil {
		return roster.Fields{}, err
	}
	return roster.Fields{
		Name:           parts[0],
		Email:          parts[1],
		Program:        parts[2],
		EnrollmentYear: year,
	}, nil
}
