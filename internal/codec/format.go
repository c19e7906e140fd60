package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/roster/internal/roster"
)

const (
	// Delimiter separates fields within a record line.
	Delimiter = ";"

	// FieldCount is the number of fields in a record line.
	FieldCount = 5
)

// EncodeRecord renders one record as a line without the terminator.
func EncodeRecord(rec roster.Record) string {
	return strings.Join([]string{
		strconv.FormatInt(rec.ID, 10),
		rec.Name,
		rec.Email,
		rec.Program,
		strconv.FormatInt(rec.EnrollmentYear, 10),
	}, Delimiter)
}

// EncodeRecords writes recs in order, one line each.
// Returns the first write error; lines after it are not attempted.
func EncodeRecords(w io.Writer, recs []roster.Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range recs {
		if _, err := bw.WriteString(EncodeRecord(rec) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeRecord parses a single record line.
// Fields after the fifth are ignored. Numeric fields tolerate surrounding
// whitespace; text fields are taken verbatim.
func DecodeRecord(line string) (roster.Record, error) {
	if line == "" {
		return roster.Record{}, fmt.Errorf("empty line")
	}
	parts := strings.Split(line, Delimiter)
	if len(parts) < FieldCount {
		return roster.Record{}, fmt.Errorf("expected %d fields, got %d", FieldCount, len(parts))
	}

	id, err := parsePositiveInt(parts[0])
	if err != nil {
		return roster.Record{}, fmt.Errorf("id: %w", err)
	}
	year, err := parsePositiveInt(parts[4])
	if err != nil {
		return roster.Record{}, fmt.Errorf("enrollment year: %w", err)
	}

	return roster.Record{
		ID:             id,
		Name:           parts[1],
		Email:          parts[2],
		Program:        parts[3],
		EnrollmentYear: year,
	}, nil
}

// DecodeRecords reads record lines in order. Lines that fail to parse are
// returned as LineErrors and skipped; only a read failure on r yields a
// non-nil error.
func DecodeRecords(r io.Reader) ([]roster.Record, []LineError, error) {
	lines, skipped, err := decodeLines(r)
	recs := make([]roster.Record, len(lines))
	for i, l := range lines {
		recs[i] = l.rec
	}
	return recs, skipped, err
}

// lineRecord is a decoded record plus the line it came from.
type lineRecord struct {
	line int
	rec  roster.Record
}

func decodeLines(r io.Reader) ([]lineRecord, []LineError, error) {
	var lines []lineRecord
	var skipped []LineError

	// Lines have no length limit: any field the store accepts must load back.
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, readErr := br.ReadString('\n')
		if raw != "" {
			lineNo++
			text := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")

			if rec, err := DecodeRecord(text); err != nil {
				skipped = append(skipped, LineError{Line: lineNo, Text: text, Reason: err.Error()})
			} else {
				lines = append(lines, lineRecord{line: lineNo, rec: rec})
			}
		}
		if readErr == io.EOF {
			return lines, skipped, nil
		}
		if readErr != nil {
			return lines, skipped, readErr
		}
	}
}

// EncodeCheckpoint writes the counter as a decimal integer.
// No line terminator is written.
func EncodeCheckpoint(w io.Writer, lastID int64) error {
	_, err := io.WriteString(w, strconv.FormatInt(lastID, 10))
	return err
}

// DecodeCheckpoint reads the counter from the first line of r.
// A missing, empty, negative or non-numeric value yields 0 and ok=false;
// it is never an error.
func DecodeCheckpoint(r io.Reader) (lastID int64, ok bool) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return 0, false
	}
	text := strings.TrimSpace(scanner.Text())
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func parsePositiveInt(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("not positive: %d", n)
	}
	return n, nil
}
