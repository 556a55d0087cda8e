package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// MaxPayload is the largest payload a record can hold.
const MaxPayload = 255

// Record is one delayed payload in a session file.
type Record struct {
	DelayMs uint64
	Payload []byte
}

// Size returns the encoded size of the record.
func (r Record) Size() int {
	return EncodedDelayLen(r.DelayMs) + 1 + len(r.Payload)
}

// AppendRecord appends the encoded record to dst.
func AppendRecord(dst []byte, delayMs uint64, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return dst, &FormatError{Op: "write", Expected: MaxPayload, Actual: len(payload), Err: ErrPayloadTooLarge}
	}
	dst = AppendDelay(dst, delayMs)
	dst = append(dst, byte(len(payload)))
	return append(dst, payload...), nil
}

// WriteRecord writes one record with a single Write call, so an interrupted
// capture never leaves a partially written record behind a complete one.
func WriteRecord(w io.Writer, delayMs uint64, payload []byte) error {
	buf, err := AppendRecord(make([]byte, 0, EncodedDelayLen(delayMs)+1+len(payload)), delayMs, payload)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// ReadRecord reads a single record. It returns io.EOF when r is exhausted at
// a record boundary. If r is not an io.ByteReader it is buffered, which may
// consume bytes past the record; use a Reader for sequential reads.
func ReadRecord(r io.Reader) (Record, error) {
	return NewReader(r).Next(nil)
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Reader reads records sequentially and tracks the byte offset for errors.
type Reader struct {
	r      byteReader
	offset int64
	count  int
}

func NewReader(r io.Reader) *Reader {
	if br, ok := r.(byteReader); ok {
		return &Reader{r: br}
	}
	return &Reader{r: bufio.NewReader(r)}
}

// Offset returns the number of bytes consumed so far.
func (rd *Reader) Offset() int64 { return rd.offset }

// Count returns the number of complete records read.
func (rd *Reader) Count() int { return rd.count }

// Next reads the next record. If onChunk is non-nil it is called for every
// non-zero delay chunk as soon as the chunk is read, before the rest of the
// record; an error from onChunk aborts the read and is returned as is.
func (rd *Reader) Next(onChunk func(chunk byte) error) (Record, error) {
	start := rd.offset
	var rec Record

	for first := true; ; first = false {
		b, err := rd.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if first {
					return Record{}, io.EOF
				}
				return Record{}, &FormatError{Op: "delay", Offset: start, Err: ErrTruncatedRecord}
			}
			return Record{}, fmt.Errorf("reading delay at offset %d: %w", start, err)
		}
		rd.offset++
		if b == 0 {
			break
		}
		rec.DelayMs += uint64(b)
		if onChunk != nil {
			if err := onChunk(b); err != nil {
				return Record{}, err
			}
		}
	}

	n, err := rd.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, &FormatError{Op: "length", Offset: start, Expected: 1, Actual: 0, Err: ErrTruncatedRecord}
		}
		return Record{}, fmt.Errorf("reading length at offset %d: %w", start, err)
	}
	rd.offset++

	rec.Payload = make([]byte, n)
	got, err := io.ReadFull(rd.r, rec.Payload)
	rd.offset += int64(got)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, &FormatError{Op: "payload", Offset: start, Expected: int(n), Actual: got, Err: ErrTruncatedRecord}
		}
		return Record{}, fmt.Errorf("reading payload at offset %d: %w", start, err)
	}
	rd.count++
	return rec, nil
}

// ReadAll reads records until a clean end of file.
func ReadAll(r io.Reader) ([]Record, error) {
	rd := NewReader(r)
	var out []Record
	for {
		rec, err := rd.Next(nil)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
