package recorder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/SmitUplenchwar2687/Rewind/internal/event"
	"github.com/SmitUplenchwar2687/Rewind/internal/metrics"
	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

// State is a capture state. Transitions only move forward:
// Connecting -> AwaitingStart -> Capturing -> Closed.
type State int

const (
	StateConnecting State = iota
	StateAwaitingStart
	StateCapturing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingStart:
		return "awaiting_start"
	case StateCapturing:
		return "capturing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// capture holds the per-session state of one Capture call.
type capture struct {
	*Recorder
	ctx   context.Context
	conn  net.Conn
	src   *bufio.Reader
	out   *session.Writer
	state State
	last  time.Time
	sum   *Summary
}

func (c *capture) run() error {
	for c.state != StateClosed {
		next, err := c.step()
		if err != nil {
			return err
		}
		c.log.Debug().Str("from", c.state.String()).Str("to", next.String()).Msg("capture transition")
		c.state = next
	}
	return nil
}

// step performs the work of the current state and returns the next one.
func (c *capture) step() (State, error) {
	switch c.state {
	case StateConnecting:
		return c.connect()
	case StateAwaitingStart:
		return c.awaitStart()
	case StateCapturing:
		return c.captureNext()
	}
	return c.state, fmt.Errorf("recorder: no transition out of %s", c.state)
}

// connect asks the source to resume a running match or training session.
// The mapping info exchange is skipped; captures attach mid-session.
func (c *capture) connect() (State, error) {
	req := protocol.ResumeRequest()
	if _, err := c.conn.Write(req[:]); err != nil {
		return c.state, c.classify("sending resume request", err)
	}
	return StateAwaitingStart, nil
}

// awaitStart drops whatever the source sent before the resume took effect,
// then writes the start record and enters Capturing.
func (c *capture) awaitStart() (State, error) {
	for {
		kind, err := c.readKind()
		if err != nil {
			return c.state, err
		}
		if kind.IsStart() {
			return c.beginSession(kind)
		}

		n, ok := protocol.BodySize(kind)
		if !ok {
			return c.state, fmt.Errorf("%w: cannot skip %s while awaiting a session start", protocol.ErrUnknownKind, kind)
		}
		if n > 0 {
			if _, err := c.src.Discard(n); err != nil {
				return c.state, c.classify(fmt.Sprintf("discarding %s body (%d bytes)", kind, n), err)
			}
		}
		c.sum.Discarded++
		metrics.CaptureDiscarded(kind.String())
		c.log.Debug().Str("kind", kind.String()).Msg("discarded stale message")
	}
}

func (c *capture) beginSession(kind protocol.Kind) (State, error) {
	start, err := protocol.ReadSessionStart(c.src, kind)
	if err != nil {
		return c.state, c.classify("reading session start", err)
	}
	if err := c.write(0, kind, start.Payload()); err != nil {
		return c.state, err
	}

	now := c.clock.Now()
	c.last = now
	c.sum.StartKind = kind
	c.sum.StartedAt = now

	ev := c.log.Info().Str("session", c.sum.SessionID).Str("kind", kind.String())
	if m, ok := start.(*protocol.MatchInfo); ok {
		ev = ev.Uint16("stage", m.Stage).Int("players", m.PlayerCount())
	}
	ev.Msg("session started")

	c.sink.Publish(event.Event{
		Type:      event.CaptureStarted,
		SessionID: c.sum.SessionID,
		Kind:      kind,
		Records:   1,
		Bytes:     c.out.Bytes(),
		Time:      now,
	})
	return StateCapturing, nil
}

// captureNext handles exactly one message of the running session.
func (c *capture) captureNext() (State, error) {
	kind, err := c.readKind()
	if err != nil {
		return c.state, err
	}
	now := c.clock.Now()

	switch {
	case kind.IsEnd() && kind.IsMatch() == c.sum.StartKind.IsMatch():
		if err := c.write(0, kind, []byte{byte(kind)}); err != nil {
			return c.state, err
		}
		c.sum.Complete = true
		c.publish(event.CaptureEnded, kind, 0, now)
		return StateClosed, nil

	case kind.IsStateFrame():
		payload := make([]byte, protocol.StateFrameSize)
		payload[0] = byte(kind)
		if _, err := io.ReadFull(c.src, payload[1:]); err != nil {
			return c.state, c.classify("reading fighter state", err)
		}
		delay := c.delay(now)
		if err := c.write(delay, kind, payload); err != nil {
			return c.state, err
		}
		c.sum.Frames++
		c.publish(event.CaptureRecord, kind, delay, now)
		return StateCapturing, nil

	case kind == protocol.TrainingReset && c.sum.StartKind.IsTraining():
		// Resets carry no body and are not persisted; the frames around
		// them already describe the new state.
		c.sum.Resets++
		c.log.Debug().Msg("training reset")
		return StateCapturing, nil
	}

	return c.state, fmt.Errorf("%w: unexpected %s during %s session", protocol.ErrUnknownKind, kind, c.sum.StartKind)
}

func (c *capture) delay(now time.Time) uint64 {
	if c.cfg.Timing == TimingMeasured {
		d := now.Sub(c.last)
		c.last = now
		return session.Millis(d)
	}
	c.last = now
	return session.Millis(c.cfg.FixedDelay)
}

func (c *capture) readKind() (protocol.Kind, error) {
	b, err := c.src.ReadByte()
	if err != nil {
		return 0, c.classify("reading message kind", err)
	}
	kind, err := protocol.ParseKind(b)
	if err != nil {
		return 0, fmt.Errorf("in state %s: %w", c.state, err)
	}
	return kind, nil
}

func (c *capture) write(delay uint64, kind protocol.Kind, payload []byte) error {
	if err := c.out.Write(delay, payload); err != nil {
		return fmt.Errorf("writing %s record %d: %w", kind, c.out.Records(), err)
	}
	metrics.CaptureRecord(kind.String(), session.EncodedDelayLen(delay)+1+len(payload))
	return nil
}

func (c *capture) publish(t event.Type, kind protocol.Kind, delay uint64, now time.Time) {
	c.sink.Publish(event.Event{
		Type:      t,
		SessionID: c.sum.SessionID,
		Kind:      kind,
		Records:   c.out.Records(),
		Bytes:     c.out.Bytes(),
		DelayMs:   delay,
		Time:      now,
	})
}

// classify maps a source I/O failure onto the capture error taxonomy.
func (c *capture) classify(what string, err error) error {
	if ctxErr := c.ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", what, ctxErr)
	}
	var ne net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, what, c.cfg.ReadTimeout)
	}
	if errors.Is(err, protocol.ErrUnknownKind) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrConnectionLost, what, err)
}
