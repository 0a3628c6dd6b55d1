package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// SourceStore persists where prototype templates come from (id -> locator).
// Unlike seeded templates, summoned sources survive process restarts.
type SourceStore interface {
	// Summon records (or replaces) the locator of a prototype.
	Summon(ctx context.Context, id, locator string) error

	// Banish forgets a prototype source. Banishing an unknown id is a no-op.
	Banish(ctx context.Context, id string) error

	// List returns every known source.
	List(ctx context.Context) (map[string]string, error)
}

// SourceLoader loads a template tree from a locator.
type SourceLoader interface {
	Load(ctx context.Context, locator string) (*domain.State, error)
}

// Watchable defines an interface for components that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the id of every template that changed.
	Watch(ctx context.Context) (<-chan string, error)
}
