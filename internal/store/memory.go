package store

import (
	"context"
	"sync"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// MemoryStore keeps entries in a process-local map.
// Safe for concurrent use by multiple goroutines.
type MemoryStore struct {
	entries map[string][]*sphelper.Parameter
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]*sphelper.Parameter),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]*sphelper.Parameter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	params, found := s.entries[key]
	return params, found, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, params []*sphelper.Parameter) error {
	s.mu.Lock()
	s.entries[key] = params
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string][]*sphelper.Parameter)
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
