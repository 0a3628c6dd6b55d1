package prototype

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Registry holds seeded templates and the persisted id -> locator sources.
// Templates loaded from sources are cached apart from seeded ones, so the
// source registry never touches what was seeded. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	seeded map[string]*domain.State
	loaded map[string]*domain.State

	sources ports.SourceStore
	loader  ports.SourceLoader
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithSourceStore sets where summoned sources are persisted.
func WithSourceStore(s ports.SourceStore) Option {
	return func(r *Registry) {
		r.sources = s
	}
}

// WithLoader sets how summoned sources are loaded.
func WithLoader(l ports.SourceLoader) Option {
	return func(r *Registry) {
		r.loader = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates a registry. By default sources live in memory and are
// loaded from the filesystem.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		seeded:  make(map[string]*domain.State),
		loaded:  make(map[string]*domain.State),
		sources: memory.NewSourceStore(),
		loader:  &FileLoader{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Seed stores template under its id, replacing any previous template.
func (r *Registry) Seed(template *domain.State) error {
	if template == nil || template.ID == "" {
		return fmt.Errorf("seed template: %w", domain.ErrMissingID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeded[template.ID] = template.Clone()
	return nil
}

// Resolve returns the template for id. A seeded template wins; otherwise a
// summoned source is loaded and cached. Callers own the returned copy.
func (r *Registry) Resolve(ctx context.Context, id string) (*domain.State, error) {
	r.mu.RLock()
	tpl, ok := r.seeded[id]
	if !ok {
		tpl, ok = r.loaded[id]
	}
	r.mu.RUnlock()
	if ok {
		return tpl.Clone(), nil
	}

	sources, err := r.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", id, err)
	}
	locator, ok := sources[id]
	if !ok {
		return nil, fmt.Errorf("prototype %q: %w", id, domain.ErrNotFound)
	}

	tpl, err = r.load(ctx, id, locator)
	if err != nil {
		return nil, err
	}
	return tpl.Clone(), nil
}

// Reload loads id from its summoned source again and replaces the cached template.
func (r *Registry) Reload(ctx context.Context, id string) (*domain.State, error) {
	sources, err := r.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reload %q: %w", id, err)
	}
	locator, ok := sources[id]
	if !ok {
		return nil, fmt.Errorf("prototype source %q: %w", id, domain.ErrNotFound)
	}
	tpl, err := r.load(ctx, id, locator)
	if err != nil {
		return nil, err
	}
	return tpl.Clone(), nil
}

func (r *Registry) load(ctx context.Context, id, locator string) (*domain.State, error) {
	tpl, err := r.loader.Load(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("load prototype %q from %s: %w", id, locator, err)
	}
	if tpl.ID == "" {
		tpl.ID = id
	}
	if tpl.ID != id {
		r.logger.Warn("Prototype source declares a different id", "id", id, "declared", tpl.ID, "locator", locator)
		tpl.ID = id
	}

	r.mu.Lock()
	r.loaded[id] = tpl
	r.mu.Unlock()

	r.logger.Debug("Prototype loaded", "id", id, "locator", locator)
	return tpl, nil
}

// Summon records where the template id comes from. A template cached from a
// previous source is dropped so the next Resolve reads the new locator.
func (r *Registry) Summon(ctx context.Context, id, locator string) error {
	if id == "" {
		return fmt.Errorf("summon: %w", domain.ErrMissingID)
	}
	if locator == "" {
		return errors.New("summon: locator is required")
	}
	if err := r.sources.Summon(ctx, id, locator); err != nil {
		return err
	}
	r.forget(id)
	return nil
}

// Banish forgets the source of id and the template loaded from it.
// A seeded template under the same id stays.
func (r *Registry) Banish(ctx context.Context, id string) error {
	if err := r.sources.Banish(ctx, id); err != nil {
		return err
	}
	r.forget(id)
	return nil
}

func (r *Registry) forget(id string) {
	r.mu.Lock()
	delete(r.loaded, id)
	r.mu.Unlock()
}

// List returns the summoned sources.
func (r *Registry) List(ctx context.Context) (map[string]string, error) {
	return r.sources.List(ctx)
}

// Seeded returns the ids of the seeded templates.
func (r *Registry) Seeded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.seeded))
	for id := range r.seeded {
		ids = append(ids, id)
	}
	return ids
}
