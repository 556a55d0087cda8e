package archive

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps entries in a map. Contents do not outlive the process.
// Thread-safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memItem
}

type memItem struct {
	meta Meta
	blob []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memItem)}
}

func (s *MemoryStore) Save(_ context.Context, meta Meta, blob []byte) error {
	if meta.ID == "" {
		return fmt.Errorf("entry id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item := memItem{meta: meta, blob: make([]byte, len(blob))}
	copy(item.blob, blob)
	s.items[meta.ID] = item
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (Meta, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return Meta{}, nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	// Return a copy to prevent mutation.
	blob := make([]byte, len(item.blob))
	copy(blob, item.blob)
	return item.meta, blob, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Meta, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.meta)
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
