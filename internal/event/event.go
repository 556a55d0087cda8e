// Package event carries capture and replay progress to observers such as the
// monitor websocket feed.
package event

import (
	"time"

	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
)

type Type string

const (
	CaptureStarted Type = "capture.started"
	CaptureRecord  Type = "capture.record"
	CaptureEnded   Type = "capture.ended"
	CaptureFailed  Type = "capture.failed"

	ReplayConnected Type = "replay.connected"
	ReplayRecord    Type = "replay.record"
	ReplayEnded     Type = "replay.ended"
)

// Event is one progress notification.
type Event struct {
	Type      Type          `json:"type"`
	SessionID string        `json:"session_id,omitempty"`
	Kind      protocol.Kind `json:"kind"`
	Records   int           `json:"records"`
	Bytes     int64         `json:"bytes"`
	DelayMs   uint64        `json:"delay_ms"`
	Outcome   string        `json:"outcome,omitempty"`
	Error     string        `json:"error,omitempty"`
	Time      time.Time     `json:"time"`
}

// Sink receives events. Implementations must not block for long; capture
// and replay call Publish inline.
type Sink interface {
	Publish(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})
