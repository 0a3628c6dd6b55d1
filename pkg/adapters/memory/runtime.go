package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Runtime implements ports.Runtime over an in-memory Graph.
// Safe for concurrent use.
type Runtime struct {
	mu    sync.RWMutex
	graph *Graph
}

// NewRuntime creates a runtime over an empty graph.
func NewRuntime() *Runtime {
	return &Runtime{graph: NewGraph()}
}

// NewRuntimeFromGraph creates a runtime that owns g.
func NewRuntimeFromGraph(g *Graph) *Runtime {
	return &Runtime{graph: g}
}

// Create materializes typ under parentRef.
func (r *Runtime) Create(ctx context.Context, parentRef string, typ *domain.Structure, attrs domain.Attributes) (*domain.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.graph.AddNode(parentRef, typ, attrs)
}

// Remove deletes the subtree at ref.
func (r *Runtime) Remove(ctx context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graph.RemoveSubtree(ref)
	return nil
}

// Transform creates target under the unique container of its parent type.
func (r *Runtime) Transform(ctx context.Context, sourceRef string, target *domain.Structure, information string) (*domain.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Transform(r.graph, sourceRef, target, information)
}

// Link relates two nodes.
func (r *Runtime) Link(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.graph.Link(fromRef, toRef, relation, reverse)
}

// Unlink removes a relation pair.
func (r *Runtime) Unlink(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.graph.Unlink(fromRef, toRef, relation, reverse)
}

// Tag sets the tag of a node.
func (r *Runtime) Tag(ctx context.Context, ref, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.graph.SetTag(ref, tag)
}

// Project returns the State at ref.
func (r *Runtime) Project(ctx context.Context, ref string) (*domain.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.graph.Project(ref)
}

// Roots returns the parentless nodes.
func (r *Runtime) Roots(ctx context.Context) ([]*domain.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.graph.Roots(), nil
}

// Transform runs the transform operation on g. Shared with graph-backed adapters.
func Transform(g *Graph, sourceRef string, target *domain.Structure, information string) (*domain.Node, error) {
	if target == nil {
		return nil, fmt.Errorf("structure is required")
	}
	if !g.Has(sourceRef) {
		return nil, fmt.Errorf("source: %w", notFound(sourceRef))
	}
	if target.Parent == nil {
		return nil, fmt.Errorf("%q is a root structure: %w", target.Name, domain.ErrNoContainer)
	}
	container, err := g.Container(target.Parent.Name)
	if err != nil {
		return nil, err
	}
	return g.AddNode(container, target, domain.Attributes{Information: information})
}
