package arbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/middleware"
	"github.com/aretw0/arbor/pkg/organization"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/prototype"
)

// Version is the release of the module.
const Version = "0.1.0"

// Platform is the high-level entry point: a runtime plus optional prototype support.
type Platform struct {
	runtime      ports.Runtime
	prototypes   *prototype.Registry
	organization *organization.Service
	middlewares  []middleware.Middleware
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Platform.
type Option func(*Platform)

// WithRuntime sets the backing runtime (default: in memory).
func WithRuntime(rt ports.Runtime) Option {
	return func(p *Platform) {
		p.runtime = rt
	}
}

// WithPrototypes enables inheritance from the given registry.
func WithPrototypes(r *prototype.Registry) Option {
	return func(p *Platform) {
		p.prototypes = r
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Platform) {
		p.logger = logger
	}
}

// WithMiddleware wraps the runtime. Middlewares apply in the order given,
// the first one being the outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(p *Platform) {
		p.middlewares = append(p.middlewares, mws...)
	}
}

// New creates a Platform.
func New(opts ...Option) (*Platform, error) {
	p := &Platform{}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.runtime == nil {
		p.runtime = memory.NewRuntime()
	}
	p.runtime = middleware.Chain(p.runtime, p.middlewares...)
	p.organization = organization.New(p.runtime, organization.WithLogger(p.logger))

	return p, nil
}

// Runtime returns the (wrapped) runtime.
func (p *Platform) Runtime() ports.Runtime {
	return p.runtime
}

// Prototypes returns the prototype registry, or nil when inheritance is disabled.
func (p *Platform) Prototypes() *prototype.Registry {
	return p.prototypes
}

// Organization returns the organization service bound to the runtime.
func (p *Platform) Organization() *organization.Service {
	return p.organization
}

// Activate projects ref and merges the template id underneath it.
// An empty id uses the id of the live node. Without a registry, or without a
// template for id, the bare projection is returned.
func (p *Platform) Activate(ctx context.Context, id, ref string) (*domain.State, error) {
	live, err := p.runtime.Project(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("activate: %w", err)
	}
	if p.prototypes == nil {
		return live, nil
	}
	if id == "" {
		id = live.ID
	}
	if id == "" {
		return live, nil
	}

	tpl, err := p.prototypes.Resolve(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		p.logger.Debug("No prototype for node", "id", id, "ref", ref)
		return live, nil
	}
	if err != nil {
		return nil, fmt.Errorf("activate: %w", err)
	}

	return domain.MergeState(tpl, live), nil
}
