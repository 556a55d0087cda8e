// Package archive keeps a named library of captured sessions. Session files
// are verified before they are stored and kept zstd-compressed.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	"github.com/SmitUplenchwar2687/Rewind/internal/clock"
	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

var ErrNotFound = errors.New("archive: session not found")

// Meta describes one archived session.
type Meta struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	StartKind protocol.Kind `json:"start_kind"`
	Records   int           `json:"records"`
	Frames    int           `json:"frames"`
	Complete  bool          `json:"complete"`
	Duration  time.Duration `json:"duration"` // sum of encoded delays
	Size      int64         `json:"size"`     // raw session file bytes
	Stored    int64         `json:"stored"`   // compressed bytes
	CreatedAt time.Time     `json:"created_at"`
}

// Store persists compressed blobs and their metadata.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores blob under meta.ID, replacing any previous entry.
	Save(ctx context.Context, meta Meta, blob []byte) error

	// Load returns ErrNotFound if id is unknown.
	Load(ctx context.Context, id string) (Meta, []byte, error)

	// List returns every entry's metadata in no particular order.
	List(ctx context.Context) ([]Meta, error)

	// Delete returns ErrNotFound if id is unknown.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Archive verifies, compresses and indexes session files on top of a Store.
type Archive struct {
	store Store
	clock clock.Clock
	log   zerolog.Logger
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

type Option func(*Archive)

func WithClock(c clock.Clock) Option { return func(a *Archive) { a.clock = c } }

func WithLogger(l zerolog.Logger) Option { return func(a *Archive) { a.log = l } }

func New(store Store, opts ...Option) (*Archive, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	a := &Archive{
		store: store,
		clock: clock.NewReal(),
		log:   zerolog.Nop(),
		enc:   enc,
		dec:   dec,
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// Put verifies data as a session file and stores it under name. Incomplete
// captures are accepted; malformed files are not.
func (a *Archive) Put(ctx context.Context, name string, data []byte) (Meta, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Meta{}, fmt.Errorf("archive name is required")
	}
	rep, err := session.Verify(bytes.NewReader(data))
	if err != nil {
		return Meta{}, fmt.Errorf("refusing to archive %q: %w", name, err)
	}

	blob := a.enc.EncodeAll(data, make([]byte, 0, len(data)/2))
	meta := Meta{
		ID:        uuid.NewString(),
		Name:      name,
		StartKind: rep.StartKind,
		Records:   rep.Records,
		Frames:    rep.StateFrames,
		Complete:  rep.Complete,
		Duration:  time.Duration(rep.TotalDelay) * time.Millisecond,
		Size:      int64(len(data)),
		Stored:    int64(len(blob)),
		CreatedAt: a.clock.Now().UTC(),
	}
	if err := a.store.Save(ctx, meta, blob); err != nil {
		return Meta{}, fmt.Errorf("saving %q: %w", name, err)
	}
	a.log.Info().Str("id", meta.ID).Str("name", name).Int64("size", meta.Size).Int64("stored", meta.Stored).Msg("session archived")
	return meta, nil
}

// Get returns the decompressed session file for ref, which is an entry ID or
// a name. A name resolves to its most recent entry.
func (a *Archive) Get(ctx context.Context, ref string) (Meta, []byte, error) {
	id, err := a.resolve(ctx, ref)
	if err != nil {
		return Meta{}, nil, err
	}
	meta, blob, err := a.store.Load(ctx, id)
	if err != nil {
		return Meta{}, nil, err
	}
	data, err := a.dec.DecodeAll(blob, make([]byte, 0, meta.Size))
	if err != nil {
		return Meta{}, nil, fmt.Errorf("decompressing %s: %w", id, err)
	}
	if int64(len(data)) != meta.Size {
		return Meta{}, nil, fmt.Errorf("archive entry %s is %d bytes, metadata says %d", id, len(data), meta.Size)
	}
	return meta, data, nil
}

// List returns all entries, newest first.
func (a *Archive) List(ctx context.Context) ([]Meta, error) {
	metas, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].ID < metas[j].ID
		}
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// Delete removes the entry ref resolves to.
func (a *Archive) Delete(ctx context.Context, ref string) error {
	id, err := a.resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	a.log.Info().Str("id", id).Msg("session removed from archive")
	return nil
}

func (a *Archive) Close() error {
	a.enc.Close()
	a.dec.Close()
	return a.store.Close()
}

func (a *Archive) resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("archive reference is required")
	}
	metas, err := a.List(ctx)
	if err != nil {
		return "", err
	}
	for _, m := range metas {
		if m.ID == ref {
			return m.ID, nil
		}
	}
	for _, m := range metas {
		if m.Name == ref {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, ref)
}
