// Package session exposes the session file format for tools that read or
// write captures directly.
package session

import (
	"io"

	internalsession "github.com/SmitUplenchwar2687/Rewind/internal/session"
)

// Record is one delayed payload in a session file.
type Record = internalsession.Record

// Report summarizes a session file.
type Report = internalsession.Report

// Reader reads records and tracks their offsets.
type Reader = internalsession.Reader

// Writer appends records, one write per record.
type Writer = internalsession.Writer

// FormatError carries the position and sizes involved in a framing failure.
type FormatError = internalsession.FormatError

const MaxPayload = internalsession.MaxPayload

var (
	ErrTruncatedRecord = internalsession.ErrTruncatedRecord
	ErrPayloadTooLarge = internalsession.ErrPayloadTooLarge
	ErrInvalidSession  = internalsession.ErrInvalidSession
)

func NewReader(r io.Reader) *Reader { return internalsession.NewReader(r) }

func NewWriter(w io.Writer) *Writer { return internalsession.NewWriter(w) }

func WriteRecord(w io.Writer, delayMs uint64, payload []byte) error {
	return internalsession.WriteRecord(w, delayMs, payload)
}

func ReadRecord(r io.Reader) (Record, error) { return internalsession.ReadRecord(r) }

func ReadAll(r io.Reader) ([]Record, error) { return internalsession.ReadAll(r) }

// Verify checks the start, frames and end ordering of a session file.
func Verify(r io.Reader) (Report, error) { return internalsession.Verify(r) }
