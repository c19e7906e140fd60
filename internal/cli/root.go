package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/roster/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath points at an optional CUE config file.
	ConfigPath string

	// Overrides for config values. Empty means "use the config".
	Records    string
	Checkpoint string
	Backend    string
	Database   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the roster CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Roster - student record keeping",
		Long: `Keep a roster of student records with stable ids.

Records live in a semicolon-delimited file next to a checkpoint that
remembers the last id handed out, or in a SQLite database when the
sqlite backend is selected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a CUE config file")
	cmd.PersistentFlags().StringVar(&opts.Records, "records", "", "record file (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Checkpoint, "checkpoint", "", "checkpoint file (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend: file|sqlite (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite database path (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// resolveConfig loads the config file (or defaults) and applies flag
// overrides on top.
func (o *RootOptions) resolveConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	if o.Records != "" {
		cfg.Records = o.Records
	}
	if o.Checkpoint != "" {
		cfg.Checkpoint = o.Checkpoint
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Backend != "" {
		if o.Backend != config.BackendFile && o.Backend != config.BackendSQLite {
			return nil, &config.Error{Message: fmt.Sprintf("unknown backend %q: must be %s or %s",
				o.Backend, config.BackendFile, config.BackendSQLite)}
		}
		cfg.Backend = o.Backend
	}
	return cfg, nil
}

// newFormatter builds the formatter for one command invocation.
func (o *RootOptions) newFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
		TraceID:   NewTraceID(),
	}
}

// newLogger returns a text logger on w at Info level, or Debug with --verbose.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}
