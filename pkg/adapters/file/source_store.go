package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

// SourceStore implements ports.SourceStore as a JSON object file (id -> locator).
type SourceStore struct {
	Path string

	mu sync.Mutex
}

// NewSourceStore creates a source store persisting to path.
// If path is empty, it defaults to ".arbor/prototypes.json".
func NewSourceStore(path string) *SourceStore {
	if path == "" {
		path = filepath.Join(".arbor", "prototypes.json")
	}
	return &SourceStore{Path: path}
}

func (s *SourceStore) load() (map[string]string, error) {
	sources := make(map[string]string)
	if _, err := readJSON(s.Path, &sources); err != nil {
		return nil, fmt.Errorf("failed to load prototype sources: %w", err)
	}
	return sources, nil
}

// Summon records the locator of a prototype.
func (s *SourceStore) Summon(ctx context.Context, id, locator string) error {
	if id == "" {
		return fmt.Errorf("prototype id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sources, err := s.load()
	if err != nil {
		return err
	}
	sources[id] = locator
	return writeJSON(s.Path, sources)
}

// Banish forgets a prototype source.
func (s *SourceStore) Banish(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sources, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := sources[id]; !ok {
		return nil
	}
	delete(sources, id)
	return writeJSON(s.Path, sources)
}

// List returns every known source.
func (s *SourceStore) List(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}
