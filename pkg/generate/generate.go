package generate

import (
	"io"

	internalgenerate "github.com/SmitUplenchwar2687/Rewind/internal/generate"
)

const (
	ModeMatch    = internalgenerate.ModeMatch
	ModeTraining = internalgenerate.ModeTraining

	PatternSteady = internalgenerate.PatternSteady
	PatternBurst  = internalgenerate.PatternBurst
	PatternRamp   = internalgenerate.PatternRamp
)

// Options controls the generated session.
type Options = internalgenerate.Options

// Result describes what was written.
type Result = internalgenerate.Result

func DefaultOptions() Options {
	return internalgenerate.DefaultOptions()
}

// Session writes a synthetic session file to w.
func Session(w io.Writer, opts Options) (Result, error) {
	return internalgenerate.Session(w, opts)
}

// Bytes returns a synthetic session file in memory.
func Bytes(opts Options) ([]byte, Result, error) {
	return internalgenerate.Bytes(opts)
}
