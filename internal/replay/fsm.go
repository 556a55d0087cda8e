package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/SmitUplenchwar2687/Rewind/internal/clock"
	"github.com/SmitUplenchwar2687/Rewind/internal/event"
	"github.com/SmitUplenchwar2687/Rewind/internal/metrics"
	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

// State is a replay state: Listening -> Handshaking -> Replaying -> Done.
type State int

const (
	StateListening State = iota
	StateHandshaking
	StateReplaying
	StateDone
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateHandshaking:
		return "handshaking"
	case StateReplaying:
		return "replaying"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type replay struct {
	*Player
	ctx   context.Context
	ln    net.Listener
	conn  net.Conn
	out   io.Writer
	rd    *session.Reader
	state State
	sum   *Summary
	begin time.Time
}

func (r *replay) run() error {
	for r.state != StateDone {
		next, err := r.step()
		if err != nil {
			return err
		}
		r.log.Debug().Str("from", r.state.String()).Str("to", next.String()).Msg("replay transition")
		r.state = next
	}
	return nil
}

func (r *replay) step() (State, error) {
	switch r.state {
	case StateListening:
		return r.listen()
	case StateHandshaking:
		return r.handshake()
	case StateReplaying:
		return r.replayNext()
	}
	return r.state, fmt.Errorf("replay: no transition out of %s", r.state)
}

// listen accepts one client and stops listening; later clients are refused.
func (r *replay) listen() (State, error) {
	ctx := r.ctx
	if r.cfg.AcceptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.AcceptTimeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, func() { _ = r.ln.Close() })
	defer stop()

	conn, err := r.ln.Accept()
	if err != nil {
		switch {
		case r.ctx.Err() != nil:
			return r.state, fmt.Errorf("accepting replay client: %w", r.ctx.Err())
		case ctx.Err() != nil:
			return r.state, fmt.Errorf("%w: no client within %s", ErrTimeout, r.cfg.AcceptTimeout)
		}
		return r.state, fmt.Errorf("accepting replay client: %w", err)
	}
	_ = r.ln.Close()
	r.attach(conn)
	return StateHandshaking, nil
}

func (r *replay) attach(conn net.Conn) {
	r.conn = conn
	r.out = &deadlineWriter{ctx: r.ctx, conn: conn, timeout: r.cfg.WriteTimeout}
	r.sum.Peer = conn.RemoteAddr().String()

	r.log.Info().Str("peer", r.sum.Peer).Float64("speed", r.cfg.Speed).Msg("replay client connected")
	r.sink.Publish(event.Event{Type: event.ReplayConnected, Time: r.clock.Now()})
}

// handshake sends the fixed preamble, once, before any recorded byte.
func (r *replay) handshake() (State, error) {
	hs := r.cfg.Handshake.Bytes()
	if err := r.send("handshake", hs[:]); err != nil {
		return r.state, err
	}
	metrics.ReplayHandshake(len(hs))
	return StateReplaying, nil
}

// replayNext forwards exactly one record. A clean end of file ends the replay;
// it is only complete when the last record was an end marker.
func (r *replay) replayNext() (State, error) {
	rec, err := r.rd.Next(r.wait)
	if errors.Is(err, io.EOF) {
		if !r.sum.Complete {
			return r.state, fmt.Errorf("%w after %d records", ErrNoEndMarker, r.sum.Records)
		}
		return StateDone, nil
	}
	if err != nil {
		return r.state, fmt.Errorf("reading record %d: %w", r.rd.Count(), err)
	}

	var kind protocol.Kind
	if len(rec.Payload) > 0 {
		kind = protocol.Kind(rec.Payload[0])
	}
	if err := r.send(fmt.Sprintf("record %d", r.sum.Records), rec.Payload); err != nil {
		return r.state, err
	}

	if r.sum.Records == 0 {
		r.sum.StartKind = kind
	}
	if kind.IsStateFrame() {
		r.sum.StateFrames++
	}
	r.sum.Complete = len(rec.Payload) == 1 && kind.IsEnd()
	r.sum.Records++
	r.sum.FileDelay += time.Duration(rec.DelayMs) * time.Millisecond
	metrics.ReplayRecord(len(rec.Payload))
	r.sink.Publish(event.Event{
		Type:    event.ReplayRecord,
		Kind:    kind,
		Records: r.sum.Records,
		Bytes:   r.sum.Bytes,
		DelayMs: rec.DelayMs,
		Time:    r.clock.Now(),
	})
	return StateReplaying, nil
}

// wait sleeps for one delay chunk, scaled by the speed multiplier.
func (r *replay) wait(chunk byte) error {
	if r.cfg.Speed == 0 {
		return nil
	}
	d := time.Duration(float64(time.Duration(chunk)*time.Millisecond) / r.cfg.Speed)
	if err := clock.Sleep(r.ctx, r.clock, d); err != nil {
		return err
	}
	r.sum.Waited += d
	metrics.ReplayWait(d)
	return nil
}

func (r *replay) send(what string, p []byte) error {
	n, err := r.out.Write(p)
	r.sum.Bytes += int64(n)
	if err == nil {
		return nil
	}
	if ctxErr := r.ctx.Err(); ctxErr != nil {
		return fmt.Errorf("sending %s: %w", what, ctxErr)
	}
	var ne net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: sending %s after %s", ErrTimeout, what, r.cfg.WriteTimeout)
	}
	return fmt.Errorf("%w: sending %s: %v", ErrPeerGone, what, err)
}
