package replay

import (
	internalreplay "github.com/SmitUplenchwar2687/Rewind/internal/replay"
)

// Player serves one recorded session to one client.
type Player = internalreplay.Player

// Config controls a replay.
type Config = internalreplay.Config

// Summary aggregates replay statistics.
type Summary = internalreplay.Summary

// Outcome classifies how a replay ended.
type Outcome = internalreplay.Outcome

type Option = internalreplay.Option

const (
	DefaultAddr = internalreplay.DefaultAddr

	OutcomeComplete  = internalreplay.OutcomeComplete
	OutcomeTruncated = internalreplay.OutcomeTruncated
	OutcomePeerGone  = internalreplay.OutcomePeerGone
	OutcomeTimeout   = internalreplay.OutcomeTimeout
	OutcomeCancelled = internalreplay.OutcomeCancelled
	OutcomeFailed    = internalreplay.OutcomeFailed
)

var (
	ErrTimeout     = internalreplay.ErrTimeout
	ErrPeerGone    = internalreplay.ErrPeerGone
	ErrNoEndMarker = internalreplay.ErrNoEndMarker

	WithClock  = internalreplay.WithClock
	WithLogger = internalreplay.WithLogger
	WithSink   = internalreplay.WithSink
)

func DefaultConfig() Config {
	return internalreplay.DefaultConfig()
}

// New creates a new player.
func New(cfg Config, opts ...Option) *Player {
	return internalreplay.New(cfg, opts...)
}
