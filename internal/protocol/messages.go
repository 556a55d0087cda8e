package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// StateFrameSize is the full FighterState message, kind byte included.
	StateFrameSize = 30
	// StateBodySize is the FighterState body that follows the kind byte.
	StateBodySize = StateFrameSize - 1

	MatchHeaderSize  = 3
	TrainingBodySize = 4

	// ResumeRequest asks the source to resume whatever session is running.
	resumeRequestSize = 2
)

var ErrMalformedPayload = errors.New("protocol: malformed payload")

// ResumeRequest returns the two-byte request a capture sends right after
// connecting, skipping the mapping info exchange.
func ResumeRequest() [resumeRequestSize]byte {
	return [resumeRequestSize]byte{byte(MatchResume), byte(TrainingResume)}
}

// BodySize returns the fixed body length for kinds whose framing is known
// without further reads. ok is false for kinds with variable or unknown bodies.
func BodySize(k Kind) (n int, ok bool) {
	switch k {
	case ProtocolVersion:
		return 2, true
	case MappingInfoChecksum, MappingInfoRequest:
		return 4, true
	case TrainingStart, TrainingResume:
		return TrainingBodySize, true
	case MatchEnd, TrainingEnd, TrainingReset, MappingInfoRequestComplete:
		return 0, true
	case FighterState:
		return StateBodySize, true
	}
	return 0, false
}

// SessionStart is the payload that opens a session, either a match or a
// training session.
type SessionStart interface {
	Kind() Kind
	// Payload returns the kind byte followed by the body, as persisted.
	Payload() []byte
}

// MatchInfo is the body of MatchStart and MatchResume.
type MatchInfo struct {
	StartKind  Kind
	Stage      uint16
	EntryIDs   []byte
	FighterIDs []byte
	Tags       [][]byte
}

// TrainingInfo is the body of TrainingStart and TrainingResume. The original
// client reads it as stage (2 bytes), player fighter, cpu fighter.
type TrainingInfo struct {
	StartKind Kind
	Body      [TrainingBodySize]byte
}

func (m *MatchInfo) Kind() Kind { return m.StartKind }

func (m *MatchInfo) PlayerCount() int { return len(m.EntryIDs) }

func (m *MatchInfo) Payload() []byte {
	n := len(m.EntryIDs)
	size := 1 + MatchHeaderSize + 2*n
	for _, tag := range m.Tags {
		size += 1 + len(tag)
	}
	out := make([]byte, 0, size)
	out = append(out, byte(m.StartKind))
	out = binary.BigEndian.AppendUint16(out, m.Stage)
	out = append(out, byte(n))
	out = append(out, m.EntryIDs...)
	out = append(out, m.FighterIDs...)
	for _, tag := range m.Tags {
		out = append(out, byte(len(tag)))
		out = append(out, tag...)
	}
	return out
}

// MarshalJSON renders ids as numbers and tags as strings.
func (m *MatchInfo) MarshalJSON() ([]byte, error) {
	tags := make([]string, len(m.Tags))
	for i, tag := range m.Tags {
		tags[i] = string(tag)
	}
	return json.Marshal(struct {
		Kind       Kind     `json:"kind"`
		Stage      uint16   `json:"stage"`
		EntryIDs   []int    `json:"entry_ids"`
		FighterIDs []int    `json:"fighter_ids"`
		Tags       []string `json:"tags"`
	}{m.StartKind, m.Stage, ints(m.EntryIDs), ints(m.FighterIDs), tags})
}

func ints(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func (t *TrainingInfo) Kind() Kind { return t.StartKind }

func (t *TrainingInfo) Stage() uint16 { return binary.BigEndian.Uint16(t.Body[0:2]) }

func (t *TrainingInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind          Kind   `json:"kind"`
		Stage         uint16 `json:"stage"`
		PlayerFighter int    `json:"player_fighter"`
		CPUFighter    int    `json:"cpu_fighter"`
	}{t.StartKind, t.Stage(), int(t.Body[2]), int(t.Body[3])})
}

func (t *TrainingInfo) Payload() []byte {
	out := make([]byte, 0, 1+TrainingBodySize)
	out = append(out, byte(t.StartKind))
	return append(out, t.Body[:]...)
}

// ReadSessionStart reads the body that follows a start kind byte on the wire.
// Short reads surface as io.ErrUnexpectedEOF or io.EOF.
func ReadSessionStart(r io.Reader, kind Kind) (SessionStart, error) {
	switch kind {
	case MatchStart, MatchResume:
		return readMatchInfo(r, kind)
	case TrainingStart, TrainingResume:
		t := &TrainingInfo{StartKind: kind}
		if _, err := io.ReadFull(r, t.Body[:]); err != nil {
			return nil, fmt.Errorf("reading %s body: %w", kind, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %s does not start a session", ErrUnknownKind, kind)
	}
}

func readMatchInfo(r io.Reader, kind Kind) (*MatchInfo, error) {
	var hdr [MatchHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading %s header: %w", kind, err)
	}
	n := int(hdr[2])
	m := &MatchInfo{
		StartKind:  kind,
		Stage:      binary.BigEndian.Uint16(hdr[0:2]),
		EntryIDs:   make([]byte, n),
		FighterIDs: make([]byte, n),
		Tags:       make([][]byte, n),
	}
	if _, err := io.ReadFull(r, m.EntryIDs); err != nil {
		return nil, fmt.Errorf("reading %s entry ids: %w", kind, err)
	}
	if _, err := io.ReadFull(r, m.FighterIDs); err != nil {
		return nil, fmt.Errorf("reading %s fighter ids: %w", kind, err)
	}
	var l [1]byte
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, l[:]); err != nil {
			return nil, fmt.Errorf("reading %s tag %d length: %w", kind, i, err)
		}
		tag := make([]byte, l[0])
		if _, err := io.ReadFull(r, tag); err != nil {
			return nil, fmt.Errorf("reading %s tag %d: %w", kind, i, err)
		}
		m.Tags[i] = tag
	}
	return m, nil
}

// ParseSessionStart parses a persisted start payload (kind byte included).
func ParseSessionStart(payload []byte) (SessionStart, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty start payload", ErrMalformedPayload)
	}
	kind, err := ParseKind(payload[0])
	if err != nil {
		return nil, err
	}
	if !kind.IsStart() {
		return nil, fmt.Errorf("%w: %s does not start a session", ErrMalformedPayload, kind)
	}
	r := bytes.NewReader(payload[1:])
	start, err := ReadSessionStart(r, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if r.Len() > 0 {
		return nil, fmt.Errorf("%w: %s body has %d trailing bytes", ErrMalformedPayload, kind, r.Len())
	}
	return start, nil
}
