package archive

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/Rewind/internal/clock"
	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func trainingSession(t *testing.T, frames int, complete bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := session.NewWriter(&buf)
	if err := w.Write(0, []byte{byte(protocol.TrainingStart), 0, 3, 10, 11}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < frames; i++ {
		f := make([]byte, protocol.StateFrameSize)
		f[0] = byte(protocol.FighterState)
		f[1] = byte(i)
		if err := w.Write(16, f); err != nil {
			t.Fatal(err)
		}
	}
	if complete {
		if err := w.Write(0, []byte{byte(protocol.TrainingEnd)}); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func newTestArchive(t *testing.T, vc *clock.Virtual) *Archive {
	t.Helper()
	a, err := New(NewMemoryStore(), WithClock(vc))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestArchive_PutGet(t *testing.T) {
	a := newTestArchive(t, clock.NewVirtual(epoch))
	data := trainingSession(t, 200, true)

	meta, err := a.Put(context.Background(), "combo-drill", data)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if meta.ID == "" || meta.Name != "combo-drill" {
		t.Errorf("meta = %+v", meta)
	}
	if meta.Records != 202 || meta.Frames != 200 || !meta.Complete || meta.StartKind != protocol.TrainingStart {
		t.Errorf("meta counts = %+v", meta)
	}
	if meta.Duration != 3200*time.Millisecond {
		t.Errorf("Duration = %v, want 3.2s", meta.Duration)
	}
	if meta.Stored >= meta.Size {
		t.Errorf("stored %d bytes for a %d byte session, expected compression", meta.Stored, meta.Size)
	}
	if !meta.CreatedAt.Equal(epoch) {
		t.Errorf("CreatedAt = %v, want %v", meta.CreatedAt, epoch)
	}

	for _, ref := range []string{meta.ID, "combo-drill"} {
		got, out, err := a.Get(context.Background(), ref)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", ref, err)
		}
		if got.ID != meta.ID || !bytes.Equal(out, data) {
			t.Errorf("Get(%q) returned a different session", ref)
		}
	}
}

func TestArchive_AcceptsIncompleteCapture(t *testing.T) {
	a := newTestArchive(t, clock.NewVirtual(epoch))
	meta, err := a.Put(context.Background(), "cut-short", trainingSession(t, 3, false))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if meta.Complete {
		t.Error("meta should not be complete")
	}
}

func TestArchive_RejectsInvalidSession(t *testing.T) {
	a := newTestArchive(t, clock.NewVirtual(epoch))
	ctx := context.Background()

	if _, err := a.Put(ctx, "empty", nil); !errors.Is(err, session.ErrInvalidSession) {
		t.Errorf("Put(empty) error = %v, want ErrInvalidSession", err)
	}
	data := trainingSession(t, 2, true)
	if _, err := a.Put(ctx, "cut", data[:len(data)-4]); !errors.Is(err, session.ErrTruncatedRecord) {
		t.Errorf("Put(truncated) error = %v, want ErrTruncatedRecord", err)
	}
	if _, err := a.Put(ctx, "  ", data); err == nil {
		t.Error("Put() with blank name should fail")
	}
}

func TestArchive_NameResolvesToNewest(t *testing.T) {
	vc := clock.NewVirtual(epoch)
	a := newTestArchive(t, vc)
	ctx := context.Background()

	old, err := a.Put(ctx, "daily", trainingSession(t, 1, true))
	if err != nil {
		t.Fatal(err)
	}
	vc.Advance(time.Hour)
	newer, err := a.Put(ctx, "daily", trainingSession(t, 5, true))
	if err != nil {
		t.Fatal(err)
	}

	got, _, err := a.Get(ctx, "daily")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != newer.ID {
		t.Errorf("Get(daily) = %s, want newest %s", got.ID, newer.ID)
	}

	list, err := a.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != old.ID {
		t.Errorf("List() order = %v", list)
	}
}

func TestArchive_Delete(t *testing.T) {
	a := newTestArchive(t, clock.NewVirtual(epoch))
	ctx := context.Background()

	meta, err := a.Put(ctx, "gone", trainingSession(t, 1, true))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, _, err := a.Get(ctx, meta.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := a.Delete(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.Backend = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend should be invalid")
	}

	cfg = DefaultConfig()
	cfg.Backend = BackendRedis
	cfg.Redis.Host = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing redis host should be invalid")
	}

	cfg = DefaultConfig()
	cfg.Backend = BackendRedis
	cfg.Redis.Cluster = true
	if err := cfg.Validate(); err == nil {
		t.Error("cluster without nodes should be invalid")
	}

	cfg = DefaultConfig()
	cfg.Backend = BackendRedis
	cfg.Redis.TTL = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("negative ttl should be invalid")
	}
}

func TestOpen_Memory(t *testing.T) {
	a, err := Open(DefaultConfig())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()
	if _, ok := a.store.(*MemoryStore); !ok {
		t.Errorf("store = %T, want *MemoryStore", a.store)
	}
}
