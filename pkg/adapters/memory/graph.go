package memory

import (
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// relation is one labelled direction of a link, stored on its source node.
type relation struct {
	to    string
	label string
}

// Graph is an in-memory tree of nodes plus cross-branch relations.
//
// Tree edges and relations live in separate maps keyed by the same ref, so a cascade
// over children can never walk through a relation. A type-name index tracks which refs
// materialize each Structure, giving Transform its container lookup.
//
// Graph is not safe for concurrent use; Runtime adds the locking.
type Graph struct {
	nodes    map[string]*domain.Node
	order    []string
	parent   map[string]string
	children map[string][]string
	links    map[string][]relation
	byType   map[string][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*domain.Node),
		parent:   make(map[string]string),
		children: make(map[string][]string),
		links:    make(map[string][]relation),
		byType:   make(map[string][]string),
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Has reports whether ref resolves.
func (g *Graph) Has(ref string) bool {
	_, ok := g.nodes[ref]
	return ok
}

// Node returns a copy of the node at ref.
func (g *Graph) Node(ref string) (*domain.Node, error) {
	n, ok := g.nodes[ref]
	if !ok {
		return nil, notFound(ref)
	}
	return copyNode(n), nil
}

// AddNode materializes typ under parentRef ("" for a root) with a fresh ref.
func (g *Graph) AddNode(parentRef string, typ *domain.Structure, attrs domain.Attributes) (*domain.Node, error) {
	if typ == nil {
		return nil, fmt.Errorf("structure is required")
	}
	if parentRef != "" && !g.Has(parentRef) {
		return nil, fmt.Errorf("parent: %w", notFound(parentRef))
	}

	n := &domain.Node{
		Structure:   *typ.Clone(),
		Ref:         uuid.NewString(),
		ID:          attrs.ID,
		Alias:       slices.Clone(attrs.Alias),
		Information: attrs.Information,
	}
	g.insert(n, parentRef)
	return copyNode(n), nil
}

func (g *Graph) insert(n *domain.Node, parentRef string) {
	g.nodes[n.Ref] = n
	g.order = append(g.order, n.Ref)
	g.byType[n.Name] = append(g.byType[n.Name], n.Ref)
	if parentRef != "" {
		g.parent[n.Ref] = parentRef
		g.children[parentRef] = append(g.children[parentRef], n.Ref)
	}
}

// Subtree returns ref and its descendants, depth-first, ancestors before leaves.
// Relations are not followed.
func (g *Graph) Subtree(ref string) []string {
	if !g.Has(ref) {
		return nil
	}
	var out []string
	stack := []string{ref}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		kids := g.children[cur]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// RemoveSubtree deletes ref and its descendants, leaves first, dropping every relation
// that touches them. It returns the removed refs; an unknown ref removes nothing.
func (g *Graph) RemoveSubtree(ref string) []string {
	subtree := g.Subtree(ref)
	if len(subtree) == 0 {
		return nil
	}

	if p, ok := g.parent[ref]; ok {
		g.children[p] = without(g.children[p], ref)
		if len(g.children[p]) == 0 {
			delete(g.children, p)
		}
	}

	for i := len(subtree) - 1; i >= 0; i-- {
		g.delete(subtree[i])
	}
	return subtree
}

func (g *Graph) delete(ref string) {
	for _, r := range slices.Clone(g.links[ref]) {
		g.links[r.to] = slices.DeleteFunc(g.links[r.to], func(back relation) bool {
			return back.to == ref
		})
		if len(g.links[r.to]) == 0 {
			delete(g.links, r.to)
		}
	}
	delete(g.links, ref)

	n := g.nodes[ref]
	g.byType[n.Name] = without(g.byType[n.Name], ref)
	if len(g.byType[n.Name]) == 0 {
		delete(g.byType, n.Name)
	}

	delete(g.nodes, ref)
	delete(g.parent, ref)
	delete(g.children, ref)
	g.order = without(g.order, ref)
}

// Container returns the unique node whose type is named typeName.
func (g *Graph) Container(typeName string) (string, error) {
	refs := g.byType[typeName]
	switch len(refs) {
	case 0:
		return "", fmt.Errorf("%q: %w", typeName, domain.ErrNoContainer)
	case 1:
		return refs[0], nil
	default:
		return "", fmt.Errorf("%q has %d instances: %w", typeName, len(refs), domain.ErrAmbiguousContainer)
	}
}

// Link adds the relation pair unless the forward edge already exists.
func (g *Graph) Link(from, to, label, reverse string) error {
	if err := g.requireBoth(from, to); err != nil {
		return err
	}
	if g.hasRelation(from, to, label) {
		return nil
	}
	g.links[from] = append(g.links[from], relation{to: to, label: label})
	g.links[to] = append(g.links[to], relation{to: from, label: reverse})
	return nil
}

// Unlink removes both directions of the relation, if present.
func (g *Graph) Unlink(from, to, label, reverse string) error {
	if err := g.requireBoth(from, to); err != nil {
		return err
	}
	g.dropRelation(from, to, label)
	g.dropRelation(to, from, reverse)
	return nil
}

func (g *Graph) requireBoth(from, to string) error {
	if !g.Has(from) {
		return notFound(from)
	}
	if !g.Has(to) {
		return notFound(to)
	}
	return nil
}

func (g *Graph) hasRelation(from, to, label string) bool {
	return slices.Contains(g.links[from], relation{to: to, label: label})
}

func (g *Graph) dropRelation(from, to, label string) {
	g.links[from] = slices.DeleteFunc(g.links[from], func(r relation) bool {
		return r.to == to && r.label == label
	})
	if len(g.links[from]) == 0 {
		delete(g.links, from)
	}
}

// SetTag sets the tag of the node at ref.
func (g *Graph) SetTag(ref, tag string) error {
	n, ok := g.nodes[ref]
	if !ok {
		return notFound(ref)
	}
	n.Tag = tag
	return nil
}

// Project builds the State of the node at ref.
func (g *Graph) Project(ref string) (*domain.State, error) {
	if !g.Has(ref) {
		return nil, notFound(ref)
	}
	return g.project(ref), nil
}

func (g *Graph) project(ref string) *domain.State {
	state := domain.NewState(g.nodes[ref])
	for _, child := range g.children[ref] {
		state.Children = append(state.Children, g.project(child))
	}
	for _, r := range g.links[ref] {
		state.Links = append(state.Links, domain.Link{
			Relation: r.label,
			Target:   domain.NewState(g.nodes[r.to]),
		})
	}
	return state
}

// Roots returns copies of every parentless node, in creation order.
func (g *Graph) Roots() []*domain.Node {
	var roots []*domain.Node
	for _, ref := range g.order {
		if _, ok := g.parent[ref]; !ok {
			roots = append(roots, copyNode(g.nodes[ref]))
		}
	}
	return roots
}

func notFound(ref string) error {
	return fmt.Errorf("node %q: %w", ref, domain.ErrNotFound)
}

func without(refs []string, ref string) []string {
	return slices.DeleteFunc(refs, func(r string) bool { return r == ref })
}

func copyNode(n *domain.Node) *domain.Node {
	c := *n
	c.Structure = *n.Structure.Clone()
	c.Alias = slices.Clone(n.Alias)
	return &c
}
