package session

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedRecord means the file ended inside a record.
	ErrTruncatedRecord = errors.New("session: truncated record")
	// ErrPayloadTooLarge means a payload does not fit the one-byte length prefix.
	ErrPayloadTooLarge = errors.New("session: payload too large")
	// ErrInvalidSession means the records violate the start/frames/end ordering.
	ErrInvalidSession = errors.New("session: invalid session")
)

// FormatError carries the position and sizes involved in a framing failure.
type FormatError struct {
	Op       string // "delay", "length", "payload", "write"
	Offset   int64  // offset of the record that failed
	Expected int
	Actual   int
	Err      error
}

func (e *FormatError) Error() string {
	if e.Expected == 0 && e.Actual == 0 {
		return fmt.Sprintf("%v: %s at offset %d", e.Err, e.Op, e.Offset)
	}
	return fmt.Sprintf("%v: %s at offset %d: want %d bytes, got %d", e.Err, e.Op, e.Offset, e.Expected, e.Actual)
}

func (e *FormatError) Unwrap() error { return e.Err }
