package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FighterStateView is a decoded FighterState frame. Capture and replay never
// build one; it exists for inspection tools.
type FighterStateView struct {
	Frame           uint32  `json:"frame"`
	EntryID         uint8   `json:"entry_id"`
	PosX            float32 `json:"pos_x"`
	PosY            float32 `json:"pos_y"`
	Damage          float32 `json:"damage"`
	Hitstun         float32 `json:"hitstun"`
	Shield          float32 `json:"shield"`
	Status          uint16  `json:"status"`
	Motion          uint64  `json:"motion"`
	HitStatus       uint8   `json:"hit_status"`
	Stocks          uint8   `json:"stocks"`
	AttackConnected bool    `json:"attack_connected"`
	FacingRight     bool    `json:"facing_right"`
}

const (
	flagAttackConnected = 0x01
	flagFacingRight     = 0x02
)

// DecodeFighterState decodes a 30-byte FighterState payload.
func DecodeFighterState(payload []byte) (FighterStateView, error) {
	if len(payload) != StateFrameSize {
		return FighterStateView{}, fmt.Errorf("%w: fighter state is %d bytes, want %d",
			ErrMalformedPayload, len(payload), StateFrameSize)
	}
	if Kind(payload[0]) != FighterState {
		return FighterStateView{}, fmt.Errorf("%w: kind %s is not fighter_state",
			ErrMalformedPayload, Kind(payload[0]))
	}
	b := payload[1:]
	return FighterStateView{
		Frame:           binary.BigEndian.Uint32(b[0:4]),
		EntryID:         b[4],
		PosX:            math.Float32frombits(binary.BigEndian.Uint32(b[5:9])),
		PosY:            math.Float32frombits(binary.BigEndian.Uint32(b[9:13])),
		Hitstun:         float32(binary.BigEndian.Uint16(b[13:15])) / 100,
		Damage:          float32(binary.BigEndian.Uint16(b[15:17])) / 50,
		Shield:          float32(binary.BigEndian.Uint16(b[17:19])) / 200,
		Status:          binary.BigEndian.Uint16(b[19:21]),
		Motion:          uint64(b[21])<<32 | uint64(binary.BigEndian.Uint32(b[22:26])),
		HitStatus:       b[26],
		Stocks:          b[27],
		AttackConnected: b[28]&flagAttackConnected != 0,
		FacingRight:     b[28]&flagFacingRight != 0,
	}, nil
}

// EncodeFighterState is the inverse of DecodeFighterState. Values are
// truncated to their wire precision.
func EncodeFighterState(v FighterStateView) [StateFrameSize]byte {
	var out [StateFrameSize]byte
	out[0] = byte(FighterState)
	b := out[1:]
	binary.BigEndian.PutUint32(b[0:4], v.Frame)
	b[4] = v.EntryID
	binary.BigEndian.PutUint32(b[5:9], math.Float32bits(v.PosX))
	binary.BigEndian.PutUint32(b[9:13], math.Float32bits(v.PosY))
	binary.BigEndian.PutUint16(b[13:15], uint16(v.Hitstun*100))
	binary.BigEndian.PutUint16(b[15:17], uint16(v.Damage*50))
	binary.BigEndian.PutUint16(b[17:19], uint16(v.Shield*200))
	binary.BigEndian.PutUint16(b[19:21], v.Status)
	b[21] = byte(v.Motion >> 32)
	binary.BigEndian.PutUint32(b[22:26], uint32(v.Motion))
	b[26] = v.HitStatus
	b[27] = v.Stocks
	if v.AttackConnected {
		b[28] |= flagAttackConnected
	}
	if v.FacingRight {
		b[28] |= flagFacingRight
	}
	return out
}
