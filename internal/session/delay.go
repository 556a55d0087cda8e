package session

import (
	"io"
	"time"
)

// MaxChunk is the largest value a single delay byte can carry.
const MaxChunk = 255

// AppendDelay appends the encoding of ms to dst: a run of non-zero chunks
// summing to ms, then a zero terminator. Zero encodes as the terminator alone.
func AppendDelay(dst []byte, ms uint64) []byte {
	for ms >= MaxChunk {
		dst = append(dst, MaxChunk)
		ms -= MaxChunk
	}
	if ms > 0 {
		dst = append(dst, byte(ms))
	}
	return append(dst, 0)
}

// EncodedDelayLen returns the number of bytes AppendDelay produces for ms.
func EncodedDelayLen(ms uint64) int {
	n := int(ms/MaxChunk) + 1
	if ms%MaxChunk != 0 {
		n++
	}
	return n
}

// DecodeDelay reads chunks until the zero terminator and returns their sum.
// io.EOF is returned only when no byte at all was available.
func DecodeDelay(r io.ByteReader) (uint64, error) {
	var total uint64
	for first := true; ; first = false {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && !first {
				return total, io.ErrUnexpectedEOF
			}
			return total, err
		}
		if b == 0 {
			return total, nil
		}
		total += uint64(b)
	}
}

// Millis converts a duration to whole milliseconds, rounding to nearest and
// clamping negatives to zero.
func Millis(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d.Round(time.Millisecond) / time.Millisecond)
}
