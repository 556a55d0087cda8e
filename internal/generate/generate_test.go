package generate

import (
	"bytes"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

func TestSession_AllPatternsVerify(t *testing.T) {
	for _, mode := range []string{ModeMatch, ModeTraining} {
		for _, p := range []string{PatternSteady, PatternBurst, PatternRamp} {
			t.Run(mode+"/"+p, func(t *testing.T) {
				opts := DefaultOptions()
				opts.Mode = mode
				opts.Frames = 32
				opts.Pattern = p
				opts.Seed = 7

				data, res, err := Bytes(opts)
				if err != nil {
					t.Fatalf("Bytes() error = %v", err)
				}
				rep, err := session.Verify(bytes.NewReader(data))
				if err != nil {
					t.Fatalf("generated file does not verify: %v", err)
				}
				if !rep.Complete || rep.StateFrames != 32 || rep.Records != 34 {
					t.Errorf("report = %+v", rep)
				}
				if res.Records != rep.Records || res.Bytes != int64(len(data)) {
					t.Errorf("result = %+v, report = %+v", res, rep)
				}
				if res.Duration != time.Duration(rep.TotalDelay)*time.Millisecond {
					t.Errorf("duration = %s, total delay = %dms", res.Duration, rep.TotalDelay)
				}
			})
		}
	}
}

func TestSession_SteadyDelays(t *testing.T) {
	opts := DefaultOptions()
	opts.Frames = 4
	opts.Seed = 1

	data, _, err := Bytes(opts)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := session.ReadAll(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{0, 16, 16, 16, 16, 0}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i, rec := range recs {
		if rec.DelayMs != want[i] {
			t.Errorf("record %d delay = %d, want %d", i, rec.DelayMs, want[i])
		}
	}
}

func TestSession_SeedIsDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Frames = 50
	opts.Seed = 42

	a, _, err := Bytes(opts)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := Bytes(opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("same seed produced different files")
	}
}

func TestSession_FramesAlternatePlayers(t *testing.T) {
	opts := DefaultOptions()
	opts.Players = 3
	opts.Frames = 6
	opts.Seed = 3

	data, _, err := Bytes(opts)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := session.ReadAll(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	start, err := protocol.ParseSessionStart(recs[0].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if m := start.(*protocol.MatchInfo); m.PlayerCount() != 3 || string(m.Tags[2]) != "P3" {
		t.Errorf("start = %+v", m)
	}
	for i, rec := range recs[1:7] {
		v, err := protocol.DecodeFighterState(rec.Payload)
		if err != nil {
			t.Fatal(err)
		}
		if int(v.EntryID) != i%3 || int(v.Frame) != i/3 {
			t.Errorf("frame %d: entry=%d frame=%d", i, v.EntryID, v.Frame)
		}
	}
}

func TestSession_ResumeAndIncomplete(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = ModeTraining
	opts.Resume = true
	opts.Incomplete = true
	opts.Frames = 3
	opts.Stage = 0x0102

	data, res, err := Bytes(opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.StartKind != protocol.TrainingResume {
		t.Errorf("start kind = %s", res.StartKind)
	}
	rep, err := session.Verify(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Complete || rep.Records != 4 {
		t.Errorf("report = %+v", rep)
	}
	recs, _ := session.ReadAll(bytes.NewReader(data))
	start, _ := protocol.ParseSessionStart(recs[0].Payload)
	if got := start.(*protocol.TrainingInfo).Stage(); got != 0x0102 {
		t.Errorf("stage = %#x", got)
	}
}

func TestSession_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"unknown mode", func(o *Options) { o.Mode = "versus" }},
		{"negative frames", func(o *Options) { o.Frames = -1 }},
		{"no players", func(o *Options) { o.Players = 0 }},
		{"too many players", func(o *Options) { o.Players = 9 }},
		{"negative delay", func(o *Options) { o.Delay = -time.Millisecond }},
		{"unknown pattern", func(o *Options) { o.Pattern = "zigzag" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			if _, _, err := Bytes(opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}
