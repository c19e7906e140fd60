package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/roster/internal/codec"
	"github.com/roach88/roster/internal/roster"
)

// Save writes a snapshot of rs using a background context.
func (s *Store) Save(rs *roster.Store) error {
	return s.SaveContext(context.Background(), rs)
}

// Load restores rs from the database using a background context.
func (s *Store) Load(rs *roster.Store) (codec.LoadReport, error) {
	return s.LoadContext(context.Background(), rs)
}

// SaveContext replaces the stored records and checkpoint with the current
// contents of rs. Either both are replaced or neither is.
func (s *Store) SaveContext(ctx context.Context, rs *roster.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.ioError("write", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return s.ioError("write", fmt.Errorf("clear records: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (position, id, name, email, program, enrollment_year)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return s.ioError("write", fmt.Errorf("prepare insert: %w", err))
	}
	defer stmt.Close()

	for i, rec := range rs.List() {
		if _, err := stmt.ExecContext(ctx, i, rec.ID, rec.Name, rec.Email, rec.Program, rec.EnrollmentYear); err != nil {
			return s.ioError("write", fmt.Errorf("insert record %d: %w", rec.ID, err))
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoint (singleton, last_id) VALUES (1, ?)
		ON CONFLICT(singleton) DO UPDATE SET last_id = excluded.last_id
	`, rs.LastID())
	if err != nil {
		return s.ioError("write", fmt.Errorf("write checkpoint: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return s.ioError("write", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// LoadContext clears rs and restores the saved snapshot into it.
//
// Rows the store rejects are reported in LoadReport.Skipped with their
// 1-based position. The counter ends at max(checkpoint, largest id). An
// empty database is reported as NoData.
func (s *Store) LoadContext(ctx context.Context, rs *roster.Store) (codec.LoadReport, error) {
	rs.Clear()
	report := codec.LoadReport{}

	var checkpoint int64
	err := s.db.QueryRowContext(ctx, `SELECT last_id FROM checkpoint WHERE singleton = 1`).Scan(&checkpoint)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		checkpoint = 0
	case err != nil:
		return report, s.ioError("read", fmt.Errorf("read checkpoint: %w", err))
	}
	if checkpoint < 0 {
		checkpoint = 0
	}
	report.Checkpoint = checkpoint
	rs.SetLastID(checkpoint)

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, id, name, email, program, enrollment_year
		FROM records
		ORDER BY position ASC
	`)
	if err != nil {
		return report, s.ioError("read", fmt.Errorf("query records: %w", err))
	}
	defer rows.Close()

	seen := 0
	for rows.Next() {
		seen++
		var pos int
		var rec roster.Record
		if err := rows.Scan(&pos, &rec.ID, &rec.Name, &rec.Email, &rec.Program, &rec.EnrollmentYear); err != nil {
			return report, s.ioError("read", fmt.Errorf("scan record: %w", err))
		}
		if err := rs.Restore(rec); err != nil {
			report.Skipped = append(report.Skipped, codec.LineError{
				Line:   pos + 1,
				Text:   codec.EncodeRecord(rec),
				Reason: err.Error(),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return report, s.ioError("read", fmt.Errorf("iterate records: %w", err))
	}

	logSkipped(s.Logger, report.Skipped)

	if maxID := rs.MaxID(); maxID > checkpoint {
		rs.SetLastID(maxID)
	}
	report.Loaded = rs.Len()
	report.LastID = rs.LastID()
	report.NoData = seen == 0 && checkpoint == 0
	return report, nil
}

func (s *Store) ioError(op string, err error) *codec.IOError {
	return &codec.IOError{Op: op, Path: s.path, Err: err}
}

// logSkipped reports skipped rows the same way the file codec does.
func logSkipped(log *slog.Logger, skipped []codec.LineError) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, le := range skipped {
		log.Warn("skipping malformed record", "row", le.Line, "reason", le.Reason)
	}
}
