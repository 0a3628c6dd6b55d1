package memory

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Export is the serialized form of a Graph.
//
//	{ "nodes": [{ "key", "attributes" }], "edges": [{ "source", "target", "attributes", "undirected" }] }
//
// The node key is its ref. Edges without a relation attribute are tree edges (parent to child).
type Export struct {
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
}

// ExportNode is a serialized node.
type ExportNode struct {
	Key        string         `json:"key"`
	Attributes NodeAttributes `json:"attributes"`
}

// NodeAttributes holds the persisted fields of a node.
type NodeAttributes struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Parent      *domain.Structure `json:"parent,omitempty"`
	Information string            `json:"information,omitempty"`
	ID          string            `json:"id,omitempty"`
	Alias       []string          `json:"alias,omitempty"`
	Tag         string            `json:"tag,omitempty"`
}

// ExportEdge is a serialized directed edge.
type ExportEdge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Attributes EdgeAttributes `json:"attributes"`
	Undirected bool           `json:"undirected"`
}

// EdgeAttributes labels an edge. An empty Relation marks a tree edge.
type EdgeAttributes struct {
	Relation string `json:"relation,omitempty"`
}

// Export returns the serializable form of the graph, in creation order.
func (g *Graph) Export() *Export {
	out := &Export{
		Nodes: make([]ExportNode, 0, len(g.order)),
		Edges: []ExportEdge{},
	}
	for _, ref := range g.order {
		n := g.nodes[ref]
		out.Nodes = append(out.Nodes, ExportNode{
			Key: ref,
			Attributes: NodeAttributes{
				Type:        n.Name,
				Description: n.Description,
				Parent:      n.Parent.Clone(),
				Information: n.Information,
				ID:          n.ID,
				Alias:       n.Alias,
				Tag:         n.Tag,
			},
		})
		if p, ok := g.parent[ref]; ok {
			out.Edges = append(out.Edges, ExportEdge{Source: p, Target: ref})
		}
	}
	for _, ref := range g.order {
		for _, r := range g.links[ref] {
			out.Edges = append(out.Edges, ExportEdge{
				Source:     ref,
				Target:     r.to,
				Attributes: EdgeAttributes{Relation: r.label},
			})
		}
	}
	return out
}

// Import builds a graph from its serialized form.
func Import(data *Export) (*Graph, error) {
	g := NewGraph()
	for _, en := range data.Nodes {
		if en.Key == "" {
			return nil, fmt.Errorf("node without key")
		}
		if g.Has(en.Key) {
			return nil, fmt.Errorf("duplicate node %q", en.Key)
		}
		a := en.Attributes
		g.insert(&domain.Node{
			Structure:   domain.Structure{Name: a.Type, Description: a.Description, Parent: a.Parent},
			Ref:         en.Key,
			ID:          a.ID,
			Alias:       a.Alias,
			Information: a.Information,
			Tag:         a.Tag,
		}, "")
	}

	for _, e := range data.Edges {
		if err := g.requireBoth(e.Source, e.Target); err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", e.Source, e.Target, err)
		}
		if e.Attributes.Relation == "" {
			if _, ok := g.parent[e.Target]; ok {
				return nil, fmt.Errorf("node %q has more than one parent", e.Target)
			}
			g.parent[e.Target] = e.Source
			g.children[e.Source] = append(g.children[e.Source], e.Target)
			continue
		}
		g.links[e.Source] = append(g.links[e.Source], relation{to: e.Target, label: e.Attributes.Relation})
	}
	return g, nil
}

// MarshalJSON implements json.Marshaler.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Export())
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	imported, err := Import(&export)
	if err != nil {
		return err
	}
	*g = *imported
	return nil
}
