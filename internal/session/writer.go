package session

import (
	"io"
	"sync"
)

// Writer appends records to a session file. Every record is written with a
// single Write so the file is always a valid prefix of the session.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	buf     []byte
	records int
	bytes   int64
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes and writes one record.
func (sw *Writer) Write(delayMs uint64, payload []byte) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	buf, err := AppendRecord(sw.buf[:0], delayMs, payload)
	if err != nil {
		return err
	}
	sw.buf = buf
	n, err := sw.w.Write(buf)
	sw.bytes += int64(n)
	if err != nil {
		return err
	}
	sw.records++
	return nil
}

// Records returns the number of records written.
func (sw *Writer) Records() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.records
}

// Bytes returns the number of bytes written.
func (sw *Writer) Bytes() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.bytes
}
