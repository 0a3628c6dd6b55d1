package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
)

// Runtime implements ports.Runtime over a JSON graph file.
//
// The graph is reloaded from disk before every operation and saved after every
// mutating one, so separate processes sharing the file see each other's writes.
// There is no locking between processes: the last writer wins. Wrap the runtime
// with a serializing middleware when several writers share the file.
type Runtime struct {
	Path string

	mu sync.Mutex
}

// NewRuntime creates a runtime persisting to path.
// If path is empty, it defaults to ".arbor/graph.json".
func NewRuntime(path string) *Runtime {
	if path == "" {
		path = filepath.Join(".arbor", "graph.json")
	}
	return &Runtime{Path: path}
}

func (r *Runtime) load() (*memory.Graph, error) {
	g := memory.NewGraph()
	if _, err := readJSON(r.Path, g); err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	return g, nil
}

func (r *Runtime) save(g *memory.Graph) error {
	if err := writeJSON(r.Path, g); err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

// read runs fn on a freshly loaded graph.
func (r *Runtime) read(fn func(*memory.Graph) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.load()
	if err != nil {
		return err
	}
	return fn(g)
}

// write runs fn on a freshly loaded graph and saves it when fn succeeds.
func (r *Runtime) write(fn func(*memory.Graph) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.load()
	if err != nil {
		return err
	}
	if err := fn(g); err != nil {
		return err
	}
	return r.save(g)
}

// Create materializes typ under parentRef.
func (r *Runtime) Create(ctx context.Context, parentRef string, typ *domain.Structure, attrs domain.Attributes) (*domain.Node, error) {
	var node *domain.Node
	err := r.write(func(g *memory.Graph) error {
		var err error
		node, err = g.AddNode(parentRef, typ, attrs)
		return err
	})
	return node, err
}

// Remove deletes the subtree at ref. Unknown refs leave the file untouched.
func (r *Runtime) Remove(ctx context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.load()
	if err != nil {
		return err
	}
	if removed := g.RemoveSubtree(ref); len(removed) == 0 {
		return nil
	}
	return r.save(g)
}

// Transform creates target under the unique container of its parent type.
func (r *Runtime) Transform(ctx context.Context, sourceRef string, target *domain.Structure, information string) (*domain.Node, error) {
	var node *domain.Node
	err := r.write(func(g *memory.Graph) error {
		var err error
		node, err = memory.Transform(g, sourceRef, target, information)
		return err
	})
	return node, err
}

// Link relates two nodes.
func (r *Runtime) Link(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	return r.write(func(g *memory.Graph) error {
		return g.Link(fromRef, toRef, relation, reverse)
	})
}

// Unlink removes a relation pair.
func (r *Runtime) Unlink(ctx context.Context, fromRef, toRef, relation, reverse string) error {
	return r.write(func(g *memory.Graph) error {
		return g.Unlink(fromRef, toRef, relation, reverse)
	})
}

// Tag sets the tag of a node.
func (r *Runtime) Tag(ctx context.Context, ref, tag string) error {
	return r.write(func(g *memory.Graph) error {
		return g.SetTag(ref, tag)
	})
}

// Project returns the State at ref.
func (r *Runtime) Project(ctx context.Context, ref string) (*domain.State, error) {
	var state *domain.State
	err := r.read(func(g *memory.Graph) error {
		var err error
		state, err = g.Project(ref)
		return err
	})
	return state, err
}

// Roots returns the parentless nodes.
func (r *Runtime) Roots(ctx context.Context) ([]*domain.Node, error) {
	var roots []*domain.Node
	err := r.read(func(g *memory.Graph) error {
		roots = g.Roots()
		return nil
	})
	return roots, err
}
