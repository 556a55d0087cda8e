package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
	}
	for raw, want := range tests {
		got, err := ParseLevel(raw)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Format: FormatJSON, Out: &buf})
	if err != nil {
		t.Fatal(err)
	}
	log.Debug().Int("records", 3).Msg("capture closed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["app"] != "rewind" || line["message"] != "capture closed" {
		t.Errorf("unexpected log line: %v", line)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Format: FormatJSON, Out: &buf})
	if err != nil {
		t.Fatal(err)
	}
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %q", buf.String())
	}
}

func TestNew_BadFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "JSON")
	t.Setenv(EnvLogNoColor, "true")

	opts := DefaultOptions()
	ApplyEnv(&opts)
	if opts.Level != "debug" || opts.Format != FormatJSON || !opts.NoColor {
		t.Errorf("ApplyEnv() = %+v", opts)
	}
}

func TestApplyEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv(EnvLogLevel, "shout")
	t.Setenv(EnvLogNoColor, "maybe")

	opts := DefaultOptions()
	ApplyEnv(&opts)
	if opts.Level != "info" || opts.NoColor {
		t.Errorf("ApplyEnv() = %+v", opts)
	}
}
