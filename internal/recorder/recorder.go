package recorder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SmitUplenchwar2687/Rewind/internal/clock"
	"github.com/SmitUplenchwar2687/Rewind/internal/event"
	"github.com/SmitUplenchwar2687/Rewind/internal/metrics"
	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

var (
	// ErrConnectionLost covers short reads and failed sends on the source connection.
	ErrConnectionLost = errors.New("recorder: connection lost")
	// ErrTimeout means a receive exceeded the configured read timeout.
	ErrTimeout = errors.New("recorder: receive timed out")
)

// Timing selects how frame delays are derived.
type Timing string

const (
	// TimingFixed stamps every frame with FixedDelay, assuming a constant tick.
	TimingFixed Timing = "fixed"
	// TimingMeasured stamps every frame with the time since the previous record.
	TimingMeasured Timing = "measured"

	DefaultFixedDelay = 16 * time.Millisecond
)

// Config controls a capture.
type Config struct {
	Timing      Timing
	FixedDelay  time.Duration
	ReadTimeout time.Duration // 0 disables the per-receive deadline
	DialTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timing:      TimingFixed,
		FixedDelay:  DefaultFixedDelay,
		ReadTimeout: 30 * time.Second,
		DialTimeout: 5 * time.Second,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	switch c.Timing {
	case TimingFixed, TimingMeasured:
	default:
		return fmt.Errorf("unknown timing %q, must be one of: fixed, measured", c.Timing)
	}
	if c.FixedDelay < 0 {
		return fmt.Errorf("fixed delay must not be negative, got %s", c.FixedDelay)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("read timeout must not be negative, got %s", c.ReadTimeout)
	}
	return nil
}

// Summary describes one capture, complete or not.
type Summary struct {
	SessionID string        `json:"session_id"`
	StartKind protocol.Kind `json:"start_kind"`
	Timing    Timing        `json:"timing"`
	Frames    int           `json:"frames"`
	Resets    int           `json:"resets"`
	Discarded int           `json:"discarded"`
	Records   int           `json:"records"`
	Bytes     int64         `json:"bytes"`
	Complete  bool          `json:"complete"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Recorder captures one session per call from a live source.
type Recorder struct {
	cfg   Config
	clock clock.Clock
	log   zerolog.Logger
	sink  event.Sink
}

type Option func(*Recorder)

func WithClock(c clock.Clock) Option { return func(r *Recorder) { r.clock = c } }

func WithLogger(l zerolog.Logger) Option { return func(r *Recorder) { r.log = l } }

func WithSink(s event.Sink) Option {
	return func(r *Recorder) {
		if s != nil {
			r.sink = s
		}
	}
}

func New(cfg Config, opts ...Option) *Recorder {
	r := &Recorder{
		cfg:   cfg,
		clock: clock.NewReal(),
		log:   zerolog.Nop(),
		sink:  event.Discard,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Record dials the source at addr and captures a single session into w.
// The connection is closed on every path.
func (r *Recorder) Record(ctx context.Context, addr string, w io.Writer) (*Summary, error) {
	d := net.Dialer{Timeout: r.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", ErrConnectionLost, addr, err)
	}
	defer conn.Close()

	r.log.Info().Str("addr", addr).Msg("connected to source")
	return r.Capture(ctx, conn, w)
}

// Capture runs the capture state machine over an established connection.
// On error the summary describes what was written before the failure; every
// record in w up to that point is complete.
func (r *Recorder) Capture(ctx context.Context, conn net.Conn, w io.Writer) (*Summary, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	c := &capture{
		Recorder: r,
		ctx:      ctx,
		conn:     conn,
		out:      session.NewWriter(w),
		state:    StateConnecting,
		sum: &Summary{
			SessionID: uuid.NewString(),
			Timing:    r.cfg.Timing,
		},
	}
	c.src = bufio.NewReader(&deadlineReader{ctx: ctx, conn: conn, timeout: r.cfg.ReadTimeout})

	err := c.run()
	c.sum.Records = c.out.Records()
	c.sum.Bytes = c.out.Bytes()
	if !c.sum.StartedAt.IsZero() {
		c.sum.Duration = r.clock.Since(c.sum.StartedAt)
	}

	if err != nil {
		metrics.SessionFinished(metrics.RoleCapture, outcome(err))
		r.sink.Publish(event.Event{
			Type:      event.CaptureFailed,
			SessionID: c.sum.SessionID,
			Records:   c.sum.Records,
			Bytes:     c.sum.Bytes,
			Outcome:   outcome(err),
			Error:     err.Error(),
			Time:      r.clock.Now(),
		})
		r.log.Error().Err(err).Str("state", c.state.String()).Int("records", c.sum.Records).Msg("capture aborted")
		return c.sum, err
	}

	metrics.SessionFinished(metrics.RoleCapture, "complete")
	r.log.Info().
		Str("session", c.sum.SessionID).
		Int("frames", c.sum.Frames).
		Int("records", c.sum.Records).
		Int64("bytes", c.sum.Bytes).
		Dur("duration", c.sum.Duration).
		Msg("capture closed")
	return c.sum, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConnectionLost):
		return "connection_lost"
	case errors.Is(err, protocol.ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, session.ErrPayloadTooLarge):
		return "payload_too_large"
	default:
		return "failed"
	}
}

// deadlineReader arms the read deadline before every receive. The context
// check follows the re-arm so a concurrent cancel cannot be overwritten.
type deadlineReader struct {
	ctx     context.Context
	conn    net.Conn
	timeout time.Duration
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	if d.timeout > 0 {
		if err := d.conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return 0, err
		}
	}
	if err := d.ctx.Err(); err != nil {
		return 0, err
	}
	return d.conn.Read(p)
}
