package codec

import (
	"errors"
	"fmt"
)

// IOError reports a record or checkpoint artifact that could not be
// opened, read or written.
type IOError struct {
	Op   string // "open", "read", "write", "close"
	Path string // file path or database path
	Err  error  // underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIOError reports whether err is (or wraps) an IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// LineError describes a record line skipped during decoding.
type LineError struct {
	Line   int    `json:"line"`   // 1-based line number
	Text   string `json:"text"`   // raw line content
	Reason string `json:"reason"` // why the line was skipped
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}
