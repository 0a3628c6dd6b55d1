package domain

// State is a read-only projection of a Node and its descendants.
// It is always recomputed from the backing store and never persisted by the runtime.
type State struct {
	Ref         string     `json:"ref,omitempty" yaml:"ref,omitempty" mapstructure:"ref"`
	ID          string     `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Alias       []string   `json:"alias,omitempty" yaml:"alias,omitempty" mapstructure:"alias"`
	Name        string     `json:"name" yaml:"name" mapstructure:"name"`
	Description string     `json:"description" yaml:"description" mapstructure:"description"`
	Parent      *Structure `json:"parent,omitempty" yaml:"parent,omitempty" mapstructure:"parent"`
	Information string     `json:"information,omitempty" yaml:"information,omitempty" mapstructure:"information"`
	Tag         string     `json:"tag,omitempty" yaml:"tag,omitempty" mapstructure:"tag"`

	// Children holds tree descendants, recursively projected.
	Children []*State `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`

	// Links holds cross-branch relations. Targets are shallow: no children, no links.
	Links []Link `json:"links,omitempty" yaml:"links,omitempty" mapstructure:"links"`
}

// Link is one direction of a relation, as seen from the projected node.
type Link struct {
	Relation string `json:"relation" yaml:"relation" mapstructure:"relation"`
	Target   *State `json:"target" yaml:"target" mapstructure:"target"`
}

// NewState projects a single node without children or links.
func NewState(n *Node) *State {
	return &State{
		Ref:         n.Ref,
		ID:          n.ID,
		Alias:       cloneStrings(n.Alias),
		Name:        n.Name,
		Description: n.Description,
		Parent:      n.Parent.Clone(),
		Information: n.Information,
		Tag:         n.Tag,
	}
}

// Shallow returns a copy of s without children and links.
func (s *State) Shallow() *State {
	if s == nil {
		return nil
	}
	return &State{
		Ref:         s.Ref,
		ID:          s.ID,
		Alias:       cloneStrings(s.Alias),
		Name:        s.Name,
		Description: s.Description,
		Parent:      s.Parent.Clone(),
		Information: s.Information,
		Tag:         s.Tag,
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := s.Shallow()
	if len(s.Children) > 0 {
		c.Children = make([]*State, len(s.Children))
		for i, child := range s.Children {
			c.Children[i] = child.Clone()
		}
	}
	if len(s.Links) > 0 {
		c.Links = make([]Link, len(s.Links))
		for i, l := range s.Links {
			c.Links[i] = Link{Relation: l.Relation, Target: l.Target.Clone()}
		}
	}
	return c
}

// Find returns the first descendant (depth-first, s included) accepted by match.
func (s *State) Find(match func(*State) bool) *State {
	if s == nil {
		return nil
	}
	if match(s) {
		return s
	}
	for _, child := range s.Children {
		if found := child.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// LinksTo returns the targets of every link labelled relation.
func (s *State) LinksTo(relation string) []*State {
	var out []*State
	for _, l := range s.Links {
		if l.Relation == relation {
			out = append(out, l.Target)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
