// Package memory provides an in-memory storage.KV for tests and ephemeral
// runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/tallybot/tally/internal/storage"
)

// Ensure Store implements storage.KV.
var _ storage.KV = (*Store)(nil)

// Store keeps blobs in a mutex-guarded map.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Retrieve(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

func (s *Store) Store(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = slices.Clone(value)
	return nil
}

func (s *Store) Close() error {
	return nil
}
