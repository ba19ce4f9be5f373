package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"finviz/internal/store"
)

// SeedFile is read from the data directory by NewFromFiles.
const SeedFile = "seed_transactions.json"

// Store keeps slots in process memory.
type Store struct {
	mu    sync.Mutex
	slots map[string][]byte
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// NewFromFiles returns a store whose key slot is pre-filled with the
// contents of <base>/seed_transactions.json, if that file exists.
func NewFromFiles(base, key string) *Store {
	s := New()
	data, err := os.ReadFile(filepath.Join(base, SeedFile))
	if err != nil || len(data) == 0 {
		return s
	}
	s.slots[key] = data
	return s
}

// Get returns a copy of the slot contents.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.slots[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), data...)
	return nil
}

func (s *Store) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}
