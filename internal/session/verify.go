package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
)

// Report summarizes a session file.
type Report struct {
	Records     int           `json:"records"`
	StateFrames int           `json:"state_frames"`
	StartKind   protocol.Kind `json:"start_kind"`
	EndKind     protocol.Kind `json:"end_kind,omitempty"`
	Complete    bool          `json:"complete"`
	TotalDelay  uint64        `json:"total_delay_ms"`
	Bytes       int64         `json:"bytes"`
}

// Verify walks a session file and checks that it opens with a start payload,
// carries only 30-byte fighter states in between, and, when complete, closes
// with a 1-byte end marker.
// A file without an end marker is valid but not Complete.
func Verify(r io.Reader) (Report, error) {
	var rep Report
	rd := NewReader(r)

	for i := 0; ; i++ {
		rec, err := rd.Next(nil)
		rep.Bytes = rd.Offset()
		if errors.Is(err, io.EOF) {
			if i == 0 {
				return rep, fmt.Errorf("%w: empty file", ErrInvalidSession)
			}
			return rep, nil
		}
		if err != nil {
			return rep, fmt.Errorf("record %d: %w", i, err)
		}
		rep.Records++
		rep.TotalDelay += rec.DelayMs

		if rep.Complete {
			return rep, fmt.Errorf("%w: record %d follows the end marker", ErrInvalidSession, i)
		}
		if i == 0 {
			start, err := protocol.ParseSessionStart(rec.Payload)
			if err != nil {
				return rep, fmt.Errorf("%w: record 0: %v", ErrInvalidSession, err)
			}
			rep.StartKind = start.Kind()
			continue
		}
		if err := rep.checkBody(i, rec.Payload); err != nil {
			return rep, err
		}
	}
}

func (rep *Report) checkBody(i int, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: record %d is empty", ErrInvalidSession, i)
	}
	kind := protocol.Kind(payload[0])
	switch {
	case kind.IsStateFrame() && len(payload) == protocol.StateFrameSize:
		rep.StateFrames++
	case kind.IsEnd() && len(payload) == 1:
		if kind.IsMatch() != rep.StartKind.IsMatch() {
			return fmt.Errorf("%w: record %d: %s cannot close a %s session", ErrInvalidSession, i, kind, rep.StartKind)
		}
		rep.EndKind = kind
		rep.Complete = true
	default:
		return fmt.Errorf("%w: record %d: unexpected %s payload of %d bytes", ErrInvalidSession, i, kind, len(payload))
	}
	return nil
}
