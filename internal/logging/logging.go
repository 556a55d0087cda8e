package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "REWIND_LOG_LEVEL"
	EnvLogFormat  = "REWIND_LOG_FORMAT"
	EnvLogNoColor = "REWIND_LOG_NOCOLOR"

	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options selects level and output shape for the process logger.
type Options struct {
	Level   string
	Format  string
	NoColor bool
	Out     io.Writer
}

func DefaultOptions() Options {
	return Options{Level: "info", Format: FormatConsole}
}

// ApplyEnv overrides opts from REWIND_LOG_* variables. Unparseable values
// are ignored.
func ApplyEnv(opts *Options) {
	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		if _, err := ParseLevel(raw); err == nil {
			opts.Level = raw
		}
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogFormat))) {
	case FormatConsole:
		opts.Format = FormatConsole
	case FormatJSON:
		opts.Format = FormatJSON
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogNoColor))); err == nil {
		opts.NoColor = v
	}
}

// New builds a logger tagged with the app name.
func New(opts Options) (zerolog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	switch opts.Format {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: opts.NoColor}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q, must be one of: console, json", opts.Format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("app", "rewind").Logger(), nil
}

func ParseLevel(raw string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}
