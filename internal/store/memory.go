package store

import (
	"context"
	"slices"
	"sync"
)

// MemStore is the in-memory backend, also used as the test double.
type MemStore struct {
	mu   sync.Mutex
	blob []byte
	set  bool

	// Sets counts writes, for debounce coalescing assertions.
	Sets int
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Get(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		return nil, ErrNoSavedState
	}
	return slices.Clone(s.blob), nil
}

func (s *MemStore) Set(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blob = slices.Clone(blob)
	s.set = true
	s.Sets++
	return nil
}
