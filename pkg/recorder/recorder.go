package recorder

import (
	internalrecorder "github.com/SmitUplenchwar2687/Rewind/internal/recorder"
)

// Recorder captures one session per call from a live source.
type Recorder = internalrecorder.Recorder

// Config controls a capture.
type Config = internalrecorder.Config

// Summary describes one capture, complete or not.
type Summary = internalrecorder.Summary

// Timing selects how frame delays are derived.
type Timing = internalrecorder.Timing

type Option = internalrecorder.Option

const (
	TimingFixed    = internalrecorder.TimingFixed
	TimingMeasured = internalrecorder.TimingMeasured
)

var (
	ErrConnectionLost = internalrecorder.ErrConnectionLost
	ErrTimeout        = internalrecorder.ErrTimeout

	WithClock  = internalrecorder.WithClock
	WithLogger = internalrecorder.WithLogger
	WithSink   = internalrecorder.WithSink
)

func DefaultConfig() Config {
	return internalrecorder.DefaultConfig()
}

// New creates a Recorder.
func New(cfg Config, opts ...Option) *Recorder {
	return internalrecorder.New(cfg, opts...)
}
