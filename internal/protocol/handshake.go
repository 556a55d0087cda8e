package protocol

import (
	"encoding/binary"
	"io"
)

// HandshakeSize is the preamble length the player sends before any recorded content.
const HandshakeSize = 7

// Handshake is the fixed preamble a player sends on connect. It is never
// stored in a session file.
type Handshake struct {
	Marker   byte
	Major    byte
	Minor    byte
	Checksum uint32
}

// DefaultHandshake returns the version marker with protocol version 1.0 and a
// zero mapping checksum.
func DefaultHandshake() Handshake {
	return Handshake{
		Marker: byte(ProtocolVersion),
		Major:  1,
		Minor:  0,
	}
}

func (h Handshake) Bytes() [HandshakeSize]byte {
	var b [HandshakeSize]byte
	b[0] = h.Marker
	b[1] = h.Major
	b[2] = h.Minor
	binary.BigEndian.PutUint32(b[3:], h.Checksum)
	return b
}

// WriteTo writes the handshake in a single call.
func (h Handshake) WriteTo(w io.Writer) (int64, error) {
	b := h.Bytes()
	n, err := w.Write(b[:])
	return int64(n), err
}
