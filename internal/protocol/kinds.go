package protocol

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned for kind bytes outside the catalog, or for kinds
// whose framing is unknown at the point they were received.
var ErrUnknownKind = errors.New("protocol: unknown message kind")

// Kind is the first byte of every message on the wire.
type Kind uint8

const (
	ProtocolVersion Kind = iota
	MappingInfoChecksum
	MappingInfoRequest
	MappingInfoFighterKinds
	MappingInfoFighterStatusKinds
	MappingInfoStageKinds
	MappingInfoHitStatusKinds
	MappingInfoRequestComplete
	MatchStart
	MatchResume
	MatchEnd
	TrainingStart
	TrainingResume
	TrainingReset
	TrainingEnd
	FighterState

	kindCount = int(FighterState) + 1
)

// Class groups kinds by their role in a session.
type Class uint8

const (
	ClassMappingControl Class = iota
	ClassMatchStart
	ClassMatchResume
	ClassMatchEnd
	ClassTrainingStart
	ClassTrainingResume
	ClassTrainingReset
	ClassTrainingEnd
	ClassStateFrame
)

var classes = [kindCount]Class{
	ProtocolVersion:               ClassMappingControl,
	MappingInfoChecksum:           ClassMappingControl,
	MappingInfoRequest:            ClassMappingControl,
	MappingInfoFighterKinds:       ClassMappingControl,
	MappingInfoFighterStatusKinds: ClassMappingControl,
	MappingInfoStageKinds:         ClassMappingControl,
	MappingInfoHitStatusKinds:     ClassMappingControl,
	MappingInfoRequestComplete:    ClassMappingControl,
	MatchStart:                    ClassMatchStart,
	MatchResume:                   ClassMatchResume,
	MatchEnd:                      ClassMatchEnd,
	TrainingStart:                 ClassTrainingStart,
	TrainingResume:                ClassTrainingResume,
	TrainingReset:                 ClassTrainingReset,
	TrainingEnd:                   ClassTrainingEnd,
	FighterState:                  ClassStateFrame,
}

var kindNames = [kindCount]string{
	ProtocolVersion:               "protocol_version",
	MappingInfoChecksum:           "mapping_info_checksum",
	MappingInfoRequest:            "mapping_info_request",
	MappingInfoFighterKinds:       "mapping_info_fighter_kinds",
	MappingInfoFighterStatusKinds: "mapping_info_fighter_status_kinds",
	MappingInfoStageKinds:         "mapping_info_stage_kinds",
	MappingInfoHitStatusKinds:     "mapping_info_hit_status_kinds",
	MappingInfoRequestComplete:    "mapping_info_request_complete",
	MatchStart:                    "match_start",
	MatchResume:                   "match_resume",
	MatchEnd:                      "match_end",
	TrainingStart:                 "training_start",
	TrainingResume:                "training_resume",
	TrainingReset:                 "training_reset",
	TrainingEnd:                   "training_end",
	FighterState:                  "fighter_state",
}

var classNames = [...]string{
	ClassMappingControl: "mapping_control",
	ClassMatchStart:     "match_start",
	ClassMatchResume:    "match_resume",
	ClassMatchEnd:       "match_end",
	ClassTrainingStart:  "training_start",
	ClassTrainingResume: "training_resume",
	ClassTrainingReset:  "training_reset",
	ClassTrainingEnd:    "training_end",
	ClassStateFrame:     "state_frame",
}

// Classify maps a raw kind byte to its class.
func Classify(b byte) (Class, error) {
	if int(b) >= kindCount {
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownKind, b)
	}
	return classes[b], nil
}

// ParseKind validates a raw byte as a catalog kind.
func ParseKind(b byte) (Kind, error) {
	if int(b) >= kindCount {
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownKind, b)
	}
	return Kind(b), nil
}

// KindByName resolves the snake_case name used in logs and CLI flags.
func KindByName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

func (k Kind) Valid() bool { return int(k) < kindCount }

func (k Kind) Class() Class {
	if !k.Valid() {
		return ClassMappingControl
	}
	return classes[k]
}

// IsStart reports whether k opens a session (start or resume of a match or training).
func (k Kind) IsStart() bool {
	switch k {
	case MatchStart, MatchResume, TrainingStart, TrainingResume:
		return true
	}
	return false
}

func (k Kind) IsEnd() bool {
	return k == MatchEnd || k == TrainingEnd
}

func (k Kind) IsStateFrame() bool {
	return k == FighterState
}

func (k Kind) IsMatch() bool {
	return k == MatchStart || k == MatchResume || k == MatchEnd
}

func (k Kind) IsTraining() bool {
	return k >= TrainingStart && k <= TrainingEnd
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(0x%02x)", uint8(k))
	}
	return kindNames[k]
}

func (c Class) String() string {
	if int(c) >= len(classNames) {
		return fmt.Sprintf("class(%d)", uint8(c))
	}
	return classNames[c]
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := KindByName(string(b))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, b)
	}
	*k = v
	return nil
}
