package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/roster/internal/roster"
)

// RecordFlags holds the field flags shared by add and update.
type RecordFlags struct {
	Name    string
	Email   string
	Program string
	Year    string // parsed like any other user input
}

func (rf *RecordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rf.Name, "name", "", "student name")
	cmd.Flags().StringVar(&rf.Email, "email", "", "student email")
	cmd.Flags().StringVar(&rf.Program, "program", "", "academic program")
	cmd.Flags().StringVar(&rf.Year, "year", "", "enrollment year")
}

// fields validates the year and returns the store input.
func (rf *RecordFlags) fields() (roster.Fields, error) {
	year, err := roster.ParsePositive("enrollment_year", rf.Year)
	if err != nil {
		return roster.Fields{}, err
	}
	return roster.Fields{
		Name:           rf.Name,
		Email:          rf.Email,
		Program:        rf.Program,
		EnrollmentYear: year,
	}, nil
}

// recordList renders one record per line in text mode and a JSON array
// otherwise.
type recordList []roster.Record

func newRecordList(recs []roster.Record) recordList {
	if recs == nil {
		return recordList{}
	}
	return recordList(recs)
}

func (l recordList) String() string {
	if len(l) == 0 {
		return "No records."
	}
	lines := make([]string, len(l))
	for i, rec := range l {
		lines[i] = rec.String()
	}
	return strings.Join(lines, "\n")
}

// deletedRecord is the result of a delete.
type deletedRecord struct {
	ID int64 `json:"id"`
}

func (d deletedRecord) String() string {
	return fmt.Sprintf("Deleted record %d", d.ID)
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	rf := &RecordFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student record",
		Long: `Add a student record and print it with its new id.

Ids are never reused, even after the record holding the highest id
is deleted.

Example:
  roster add --name "Ana" --email a@x.com --program CS --year 2023`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(rootOpts, cmd, true, func(s *roster.Store) (interface{}, error) {
				f, err := rf.fields()
				if err != nil {
					return nil, err
				}
				return s.Add(f)
			})
		},
	}

	rf.register(cmd)
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all records in insertion order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(rootOpts, cmd, false, func(s *roster.Store) (interface{}, error) {
				return newRecordList(s.List()), nil
			})
		},
	}
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Find records by id or name",
		Long: `Find records whose id equals the term or whose name contains it.

Name matching is case-sensitive.

Example:
  roster search Ana
  roster search 7`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(rootOpts, cmd, false, func(s *roster.Store) (interface{}, error) {
				recs, err := s.Search(args[0])
				if err != nil {
					return nil, err
				}
				return newRecordList(recs), nil
			})
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(rootOpts, cmd, false, func(s *roster.Store) (interface{}, error) {
				id, err := roster.ParsePositive("id", args[0])
				if err != nil {
					return nil, err
				}
				return s.Get(id)
			})
		},
	}
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	rf := &RecordFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the fields of a record",
		Long: `Replace every field of an existing record. The id and the record's
position in the list are kept.

Example:
  roster update 3 --name "Ana B" --email ab@x.com --program CS --year 2023`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(rootOpts, cmd, true, func(s *roster.Store) (interface{}, error) {
				id, err := roster.ParsePositive("id", args[0])
				if err != nil {
					return nil, err
				}
				f, err := rf.fields()
				if err != nil {
					return nil, err
				}
				if err := s.Update(id, f); err != nil {
					return nil, err
				}
				return s.Get(id)
			})
		},
	}

	rf.register(cmd)
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(rootOpts, cmd, true, func(s *roster.Store) (interface{}, error) {
				id, err := roster.ParsePositive("id", args[0])
				if err != nil {
					return nil, err
				}
				if err := s.Delete(id); err != nil {
					return nil, err
				}
				return deletedRecord{ID: id}, nil
			})
		},
	}
}
