package archive

import (
	"context"
	"errors"
	"testing"
	"time"
)

type storeFactory struct {
	name string
	new  func(t *testing.T) (Store, func())
}

func TestStoreContract(t *testing.T) {
	factories := []storeFactory{
		{
			name: "memory",
			new: func(t *testing.T) (Store, func()) {
				s := NewMemoryStore()
				return s, func() { _ = s.Close() }
			},
		},
		{
			name: "redis",
			new: func(t *testing.T) (Store, func()) {
				t.Helper()
				return newRedisStoreForTest(t)
			},
		},
	}

	for _, f := range factories {
		t.Run(f.name, func(t *testing.T) {
			store, cleanup := f.new(t)
			defer cleanup()

			contractRoundTrip(t, store)
			contractList(t, store)
			contractDelete(t, store)
			contractNotFound(t, store)
		})
	}
}

func contractMeta(id string, at time.Time) Meta {
	return Meta{ID: id, Name: "name-" + id, Records: 3, Size: 10, Stored: 4, CreatedAt: at.UTC()}
}

func contractRoundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	meta := contractMeta("round-trip", time.Unix(100, 0))
	blob := []byte{0, 1, 2, 0xff, 0}

	if err := s.Save(ctx, meta, blob); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	blob[0] = 9 // stores must not alias the caller's slice

	gotMeta, gotBlob, err := s.Load(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if gotMeta.Name != meta.Name || gotMeta.Records != 3 || !gotMeta.CreatedAt.Equal(meta.CreatedAt) {
		t.Errorf("meta = %+v, want %+v", gotMeta, meta)
	}
	if string(gotBlob) != string([]byte{0, 1, 2, 0xff, 0}) {
		t.Errorf("blob = %v", gotBlob)
	}
}

func contractList(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, id := range []string{"list-a", "list-b"} {
		if err := s.Save(ctx, contractMeta(id, time.Unix(200, 0)), []byte(id)); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}
	metas, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	seen := map[string]bool{}
	for _, m := range metas {
		seen[m.ID] = true
	}
	if !seen["list-a"] || !seen["list-b"] {
		t.Errorf("List() = %v, want list-a and list-b", metas)
	}
}

func contractDelete(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	meta := contractMeta("to-delete", time.Unix(300, 0))
	if err := s.Save(ctx, meta, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, meta.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, _, err := s.Load(ctx, meta.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after delete error = %v, want ErrNotFound", err)
	}
	metas, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range metas {
		if m.ID == meta.ID {
			t.Error("deleted entry still listed")
		}
	}
}

func contractNotFound(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if _, _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.Save(ctx, Meta{}, nil); err == nil {
		t.Error("Save() without id should fail")
	}
}
