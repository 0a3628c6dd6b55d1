package memory

import (
	"context"
	"maps"
	"sync"
)

// SourceStore implements ports.SourceStore in memory.
// Safe for concurrent use.
type SourceStore struct {
	mu      sync.RWMutex
	sources map[string]string
}

// NewSourceStore creates an empty source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{sources: make(map[string]string)}
}

// Summon records the locator of a prototype.
func (s *SourceStore) Summon(ctx context.Context, id, locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = locator
	return nil
}

// Banish forgets a prototype source.
func (s *SourceStore) Banish(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, id)
	return nil
}

// List returns a copy of every known source.
func (s *SourceStore) List(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.sources), nil
}
