package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/SmitUplenchwar2687/Rewind/internal/clock"
	"github.com/SmitUplenchwar2687/Rewind/internal/event"
	"github.com/SmitUplenchwar2687/Rewind/internal/metrics"
	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

// DefaultAddr is the port clients of the original streaming source connect to.
const DefaultAddr = ":42069"

var (
	// ErrTimeout means a send or the accept exceeded its configured timeout.
	ErrTimeout = errors.New("replay: timed out")
	// ErrPeerGone means the client closed or reset the connection mid-replay.
	ErrPeerGone = errors.New("replay: peer disconnected")
	// ErrNoEndMarker means the file ended cleanly before an end marker was sent.
	ErrNoEndMarker = errors.New("replay: file ended without an end marker")
)

// Outcome classifies how a replay ended.
type Outcome string

const (
	OutcomeComplete  Outcome = "complete"
	OutcomeTruncated Outcome = "truncated"
	OutcomePeerGone  Outcome = "peer_gone"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Config controls a replay.
type Config struct {
	Addr          string
	Speed         float64 // 1.0 = real-time, 10.0 = 10x, 0 = instant
	WriteTimeout  time.Duration
	AcceptTimeout time.Duration // 0 waits for a client indefinitely
	Handshake     protocol.Handshake
}

func DefaultConfig() Config {
	return Config{
		Addr:         DefaultAddr,
		Speed:        1,
		WriteTimeout: 10 * time.Second,
		Handshake:    protocol.DefaultHandshake(),
	}
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Speed < 0 || math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("speed must be a finite number >= 0, got %v", c.Speed)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write timeout must not be negative, got %s", c.WriteTimeout)
	}
	if c.AcceptTimeout < 0 {
		return fmt.Errorf("accept timeout must not be negative, got %s", c.AcceptTimeout)
	}
	return nil
}

// Summary aggregates replay statistics.
type Summary struct {
	Peer         string        `json:"peer"`
	Outcome      Outcome       `json:"outcome"`
	Reason       string        `json:"error,omitempty"`
	Err          error         `json:"-"`
	StartKind    protocol.Kind `json:"start_kind"`
	Records      int           `json:"records"`
	StateFrames  int           `json:"state_frames"`
	Complete     bool          `json:"complete"` // last record sent was an end marker
	Bytes        int64         `json:"bytes"`         // sent, handshake included
	FileDelay    time.Duration `json:"file_delay"`    // sum of encoded delays
	Waited       time.Duration `json:"waited"`        // scaled time spent waiting
	WallDuration time.Duration `json:"wall_duration"` // actual wall clock time
}

// Player serves one recorded session to one client.
type Player struct {
	cfg   Config
	clock clock.Clock
	log   zerolog.Logger
	sink  event.Sink
}

type Option func(*Player)

func WithClock(c clock.Clock) Option { return func(p *Player) { p.clock = c } }

func WithLogger(l zerolog.Logger) Option { return func(p *Player) { p.log = l } }

func WithSink(s event.Sink) Option {
	return func(p *Player) {
		if s != nil {
			p.sink = s
		}
	}
}

// New creates a new player. Negative speeds are treated as instant replay.
func New(cfg Config, opts ...Option) *Player {
	if cfg.Speed < 0 {
		cfg.Speed = 0
	}
	p := &Player{
		cfg:   cfg,
		clock: clock.NewReal(),
		log:   zerolog.Nop(),
		sink:  event.Discard,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ListenAndServe binds cfg.Addr and serves src to the first client.
func (p *Player) ListenAndServe(ctx context.Context, src io.Reader) (*Summary, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", p.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", p.cfg.Addr, err)
	}
	return p.Serve(ctx, ln, src)
}

// Serve accepts exactly one connection on ln, closes ln, and replays src to
// that connection. The returned error covers setup failures only; how the
// replay itself ended is reported in the summary.
func (p *Player) Serve(ctx context.Context, ln net.Listener, src io.Reader) (*Summary, error) {
	defer ln.Close()

	r := p.newReplay(ctx, src)
	r.ln = ln
	r.state = StateListening

	p.log.Info().Str("addr", ln.Addr().String()).Msg("waiting for replay client")
	next, err := r.step()
	if err != nil {
		return nil, err
	}
	r.state = next

	stop := context.AfterFunc(ctx, func() { _ = r.conn.SetDeadline(time.Now()) })
	defer stop()
	defer r.conn.Close()
	return r.finish(r.run()), nil
}

// Play replays src to an already established connection and closes it.
func (p *Player) Play(ctx context.Context, conn net.Conn, src io.Reader) *Summary {
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()
	defer conn.Close()

	r := p.newReplay(ctx, src)
	r.attach(conn)
	r.state = StateHandshaking
	return r.finish(r.run())
}

func (p *Player) newReplay(ctx context.Context, src io.Reader) *replay {
	return &replay{
		Player: p,
		ctx:    ctx,
		rd:     session.NewReader(src),
		sum:    &Summary{},
		begin:  time.Now(),
	}
}

func (r *replay) finish(err error) *Summary {
	r.sum.WallDuration = time.Since(r.begin)
	r.sum.Outcome = classify(r.ctx, err)
	r.sum.Err = err
	if err != nil {
		r.sum.Reason = err.Error()
	}
	metrics.SessionFinished(metrics.RoleReplay, string(r.sum.Outcome))
	r.sink.Publish(event.Event{
		Type:    event.ReplayEnded,
		Kind:    r.sum.StartKind,
		Records: r.sum.Records,
		Bytes:   r.sum.Bytes,
		Outcome: string(r.sum.Outcome),
		Error:   r.sum.Reason,
		Time:    r.clock.Now(),
	})

	var ev *zerolog.Event
	switch r.sum.Outcome {
	case OutcomeComplete:
		ev = r.log.Info()
	case OutcomeFailed:
		ev = r.log.Error().Err(err)
	default:
		ev = r.log.Warn().Err(err)
	}
	ev.Str("peer", r.sum.Peer).
		Str("outcome", string(r.sum.Outcome)).
		Int("records", r.sum.Records).
		Int64("bytes", r.sum.Bytes).
		Dur("waited", r.sum.Waited).
		Msg("replay finished")
	return r.sum
}

// classify maps the error that ended a replay onto an Outcome.
func classify(ctx context.Context, err error) Outcome {
	switch {
	case err == nil:
		return OutcomeComplete
	case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case errors.Is(err, session.ErrTruncatedRecord), errors.Is(err, ErrNoEndMarker):
		return OutcomeTruncated
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrPeerGone):
		return OutcomePeerGone
	default:
		return OutcomeFailed
	}
}

// deadlineWriter arms the write deadline before every send.
type deadlineWriter struct {
	ctx     context.Context
	conn    net.Conn
	timeout time.Duration
}

func (d *deadlineWriter) Write(p []byte) (int, error) {
	if d.timeout > 0 {
		if err := d.conn.SetWriteDeadline(time.Now().Add(d.timeout)); err != nil {
			return 0, err
		}
	}
	if err := d.ctx.Err(); err != nil {
		return 0, err
	}
	return d.conn.Write(p)
}
