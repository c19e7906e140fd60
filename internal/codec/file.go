package codec

import (
	"cmp"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"github.com/roach88/roster/internal/roster"
)

// Default artifact names, kept from the files the roster has always used.
const (
	DefaultRecordsPath    = "registros.csv"
	DefaultCheckpointPath = "ultimo_id.txt"
)

// LoadReport summarizes a Load.
type LoadReport struct {
	// Loaded is the number of records restored into the store.
	Loaded int `json:"loaded"`

	// Skipped lists lines (or rows) that were not restored.
	Skipped []LineError `json:"skipped,omitempty"`

	// Checkpoint is the counter value read from storage (0 if missing or
	// malformed).
	Checkpoint int64 `json:"checkpoint"`

	// LastID is the store's counter after the load.
	LastID int64 `json:"last_id"`

	// NoData is true when no record artifact existed yet.
	NoData bool `json:"no_data,omitempty"`
}

// FileCodec saves and loads a store using a record file and a separate
// checkpoint file.
type FileCodec struct {
	RecordsPath    string
	CheckpointPath string

	// Logger receives soft warnings for skipped lines. Nil discards them.
	Logger *slog.Logger
}

// NewFileCodec creates a codec for the given paths, using the default
// names for empty arguments.
func NewFileCodec(recordsPath, checkpointPath string, logger *slog.Logger) *FileCodec {
	if recordsPath == "" {
		recordsPath = DefaultRecordsPath
	}
	if checkpointPath == "" {
		checkpointPath = DefaultCheckpointPath
	}
	return &FileCodec{RecordsPath: recordsPath, CheckpointPath: checkpointPath, Logger: logger}
}

func (c *FileCodec) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// Save writes every record in store order, then the checkpoint.
//
// If the record file cannot be opened the checkpoint is left alone. After a
// successful open the checkpoint is written even when writing or closing
// the record file fails; the record error is still returned.
func (c *FileCodec) Save(s *roster.Store) error {
	f, err := os.Create(c.RecordsPath)
	if err != nil {
		return &IOError{Op: "open", Path: c.RecordsPath, Err: err}
	}

	var recordErr error
	if err := EncodeRecords(f, s.List()); err != nil {
		recordErr = &IOError{Op: "write", Path: c.RecordsPath, Err: err}
	}
	if err := f.Close(); err != nil && recordErr == nil {
		recordErr = &IOError{Op: "close", Path: c.RecordsPath, Err: err}
	}
	if recordErr != nil {
		c.logger().Warn("record file write failed, writing checkpoint anyway",
			"path", c.RecordsPath, "error", recordErr)
	}

	checkpointErr := c.saveCheckpoint(s.LastID())
	if recordErr != nil {
		return recordErr
	}
	if checkpointErr != nil {
		return checkpointErr
	}

	c.logger().Debug("roster saved", "path", c.RecordsPath, "records", s.Len(), "last_id", s.LastID())
	return nil
}

func (c *FileCodec) saveCheckpoint(lastID int64) error {
	f, err := os.Create(c.CheckpointPath)
	if err != nil {
		return &IOError{Op: "open", Path: c.CheckpointPath, Err: err}
	}
	if err := EncodeCheckpoint(f, lastID); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: c.CheckpointPath, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: c.CheckpointPath, Err: err}
	}
	return nil
}

// Load replaces the store's contents with what is on disk.
//
// The collection is cleared first. The checkpoint is read next (missing or
// malformed means 0). A missing record file is not an error and leaves the
// store empty. Malformed lines and lines the store rejects (such as a
// duplicate id) are skipped. Finally the counter is set to the larger of the
// checkpoint and the largest loaded id.
func (c *FileCodec) Load(s *roster.Store) (LoadReport, error) {
	s.Clear()
	log := c.logger()

	report := LoadReport{}
	checkpoint, err := c.loadCheckpoint()
	if err != nil {
		return report, err
	}
	report.Checkpoint = checkpoint
	s.SetLastID(checkpoint)

	f, err := os.Open(c.RecordsPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("no record file found, starting empty", "path", c.RecordsPath)
		report.NoData = true
		report.LastID = s.LastID()
		return report, nil
	}
	if err != nil {
		return report, &IOError{Op: "open", Path: c.RecordsPath, Err: err}
	}
	defer f.Close()

	lines, skipped, err := decodeLines(f)
	if err != nil {
		return report, &IOError{Op: "read", Path: c.RecordsPath, Err: err}
	}

	report.Skipped = restoreAll(s, lines, skipped, log)
	report.Loaded = s.Len()
	report.LastID = reconcileCounter(s, checkpoint)

	log.Debug("roster loaded", "path", c.RecordsPath, "records", report.Loaded,
		"skipped", len(report.Skipped), "last_id", report.LastID)
	return report, nil
}

// loadCheckpoint reads the checkpoint file. Only an existing but unreadable
// file is an error.
func (c *FileCodec) loadCheckpoint() (int64, error) {
	f, err := os.Open(c.CheckpointPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, &IOError{Op: "open", Path: c.CheckpointPath, Err: err}
	}
	defer f.Close()

	n, ok := DecodeCheckpoint(f)
	if !ok {
		c.logger().Warn("malformed checkpoint, counter reset to 0", "path", c.CheckpointPath)
	}
	return n, nil
}

// restoreAll restores decoded records in order and logs every skipped
// line, including those the store rejects.
func restoreAll(s *roster.Store, lines []lineRecord, skipped []LineError, log *slog.Logger) []LineError {
	for _, l := range lines {
		if err := s.Restore(l.rec); err != nil {
			skipped = append(skipped, LineError{Line: l.line, Text: EncodeRecord(l.rec), Reason: err.Error()})
		}
	}

	slices.SortStableFunc(skipped, func(a, b LineError) int { return cmp.Compare(a.Line, b.Line) })
	for _, le := range skipped {
		log.Warn("skipping malformed record", "line", le.Line, "reason", le.Reason)
	}
	return skipped
}

// reconcileCounter raises lastID to the largest live id if the checkpoint
// lags behind, so the next Add cannot mint an id already in use.
func reconcileCounter(s *roster.Store, checkpoint int64) int64 {
	if maxID := s.MaxID(); maxID > checkpoint {
		s.SetLastID(maxID)
	}
	return s.LastID()
}
