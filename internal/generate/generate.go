// Package generate writes synthetic session files. The files follow the same
// record layout a live capture produces, so they can be replayed, inspected
// and archived without a running game.
package generate

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

const (
	ModeMatch    = "match"
	ModeTraining = "training"

	// PatternSteady spaces frames evenly at Options.Delay.
	PatternSteady = "steady"
	// PatternBurst sends frames in tight groups separated by long gaps.
	PatternBurst = "burst"
	// PatternRamp starts slow and speeds up to Options.Delay.
	PatternRamp = "ramp"

	burstSize = 8
	maxPlayer = 8
)

// Options controls the generated session.
type Options struct {
	Mode    string
	Frames  int
	Players int
	Stage   uint16
	Delay   time.Duration
	Pattern string
	Seed    int64
	// Resume uses MatchResume/TrainingResume as the start kind.
	Resume bool
	// Incomplete omits the end marker, like a capture cut short.
	Incomplete bool
}

func DefaultOptions() Options {
	return Options{
		Mode:    ModeMatch,
		Frames:  600,
		Players: 2,
		Stage:   1,
		Delay:   16 * time.Millisecond,
		Pattern: PatternSteady,
	}
}

// Result describes what was written.
type Result struct {
	StartKind protocol.Kind `json:"start_kind"`
	Records   int           `json:"records"`
	Frames    int           `json:"frames"`
	Bytes     int64         `json:"bytes"`
	Duration  time.Duration `json:"duration"`
}

func (o *Options) validate() error {
	if o.Mode == "" {
		o.Mode = ModeMatch
	}
	if o.Mode != ModeMatch && o.Mode != ModeTraining {
		return fmt.Errorf("unknown mode %q, must be one of: match, training", o.Mode)
	}
	if o.Frames < 0 {
		return fmt.Errorf("frames must not be negative, got %d", o.Frames)
	}
	if o.Mode == ModeMatch && (o.Players < 1 || o.Players > maxPlayer) {
		return fmt.Errorf("players must be between 1 and %d, got %d", maxPlayer, o.Players)
	}
	if o.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", o.Delay)
	}
	if o.Pattern == "" {
		o.Pattern = PatternSteady
	}
	switch o.Pattern {
	case PatternSteady, PatternBurst, PatternRamp:
	default:
		return fmt.Errorf("unknown pattern %q, must be one of: steady, burst, ramp", o.Pattern)
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return nil
}

// Session writes a synthetic session to w.
func Session(w io.Writer, opts Options) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	sw := session.NewWriter(w)

	start := startPayload(rng, opts)
	res := Result{StartKind: start.Kind()}
	if err := sw.Write(0, start.Payload()); err != nil {
		return res, fmt.Errorf("writing start: %w", err)
	}

	players := 1
	if opts.Mode == ModeMatch {
		players = opts.Players
	}
	fighters := make([]protocol.FighterStateView, players)
	for i := range fighters {
		fighters[i] = protocol.FighterStateView{
			EntryID:     uint8(i),
			PosX:        float32(i*40 - 20),
			Stocks:      3,
			FacingRight: i%2 == 0,
		}
	}

	for i := 0; i < opts.Frames; i++ {
		f := &fighters[i%players]
		step(rng, f, uint32(i/players))
		frame := protocol.EncodeFighterState(*f)

		ms := session.Millis(frameDelay(opts, i))
		if err := sw.Write(ms, frame[:]); err != nil {
			return res, fmt.Errorf("writing frame %d: %w", i, err)
		}
		res.Frames++
		res.Duration += time.Duration(ms) * time.Millisecond
	}

	if !opts.Incomplete {
		end := protocol.MatchEnd
		if opts.Mode == ModeTraining {
			end = protocol.TrainingEnd
		}
		if err := sw.Write(0, []byte{byte(end)}); err != nil {
			return res, fmt.Errorf("writing end marker: %w", err)
		}
	}
	res.Records = sw.Records()
	res.Bytes = sw.Bytes()
	return res, nil
}

// Bytes returns a synthetic session file in memory.
func Bytes(opts Options) ([]byte, Result, error) {
	var buf bytes.Buffer
	res, err := Session(&buf, opts)
	if err != nil {
		return nil, res, err
	}
	return buf.Bytes(), res, nil
}

func startPayload(rng *rand.Rand, opts Options) protocol.SessionStart {
	if opts.Mode == ModeTraining {
		kind := protocol.TrainingStart
		if opts.Resume {
			kind = protocol.TrainingResume
		}
		t := &protocol.TrainingInfo{StartKind: kind}
		t.Body[0] = byte(opts.Stage >> 8)
		t.Body[1] = byte(opts.Stage)
		t.Body[2] = byte(rng.Intn(90))
		t.Body[3] = byte(rng.Intn(90))
		return t
	}

	kind := protocol.MatchStart
	if opts.Resume {
		kind = protocol.MatchResume
	}
	m := &protocol.MatchInfo{
		StartKind:  kind,
		Stage:      opts.Stage,
		EntryIDs:   make([]byte, opts.Players),
		FighterIDs: make([]byte, opts.Players),
		Tags:       make([][]byte, opts.Players),
	}
	for i := 0; i < opts.Players; i++ {
		m.EntryIDs[i] = byte(i)
		m.FighterIDs[i] = byte(rng.Intn(90))
		m.Tags[i] = []byte(fmt.Sprintf("P%d", i+1))
	}
	return m
}

func frameDelay(opts Options, i int) time.Duration {
	switch opts.Pattern {
	case PatternBurst:
		if i%burstSize == 0 {
			return opts.Delay * burstSize
		}
		return opts.Delay / 4
	case PatternRamp:
		// Quadratic ease from 4x the delay down to the delay itself.
		if opts.Frames <= 1 {
			return opts.Delay
		}
		frac := 1 - float64(i)/float64(opts.Frames-1)
		return opts.Delay + time.Duration(3*frac*frac*float64(opts.Delay))
	default:
		return opts.Delay
	}
}

// step advances a fighter by one frame with a small random walk.
func step(rng *rand.Rand, f *protocol.FighterStateView, frame uint32) {
	f.Frame = frame
	f.PosX += float32(rng.Intn(7) - 3)
	f.PosY = max(0, f.PosY+float32(rng.Intn(5)-2))
	f.Status = uint16(rng.Intn(400))
	f.Motion = uint64(rng.Int63n(1 << 40))
	f.AttackConnected = rng.Intn(20) == 0
	if f.AttackConnected {
		f.Damage = min(f.Damage+float32(rng.Intn(12)), 999)
		f.Hitstun = float32(rng.Intn(30))
	} else if f.Hitstun > 0 {
		f.Hitstun--
	}
	f.Shield = 50
	if rng.Intn(60) == 0 {
		f.FacingRight = !f.FacingRight
	}
}
