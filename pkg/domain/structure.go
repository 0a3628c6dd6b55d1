package domain

// Structure declares a node type: its name, a description and the type it lives under.
// A nil Parent marks a root type. Structures are immutable values shared by every
// instance of the type.
type Structure struct {
	Name        string     `json:"name" yaml:"name" mapstructure:"name"`
	Description string     `json:"description" yaml:"description" mapstructure:"description"`
	Parent      *Structure `json:"parent,omitempty" yaml:"parent,omitempty" mapstructure:"parent"`
}

// NewStructure declares a type under parent (nil for a root type).
func NewStructure(name, description string, parent *Structure) *Structure {
	return &Structure{Name: name, Description: description, Parent: parent}
}

// ParentName returns the name of the parent type, or "" for root types.
func (s *Structure) ParentName() string {
	if s == nil || s.Parent == nil {
		return ""
	}
	return s.Parent.Name
}

// Clone returns a deep copy of the descriptor chain.
func (s *Structure) Clone() *Structure {
	if s == nil {
		return nil
	}
	return &Structure{Name: s.Name, Description: s.Description, Parent: s.Parent.Clone()}
}

// Attributes holds the optional values given to an instance at creation time.
type Attributes struct {
	ID          string
	Alias       []string
	Information string
}

// Node is a materialized Structure.
// Ref is assigned by the runtime, globally unique and never reused.
type Node struct {
	Structure

	Ref         string   `json:"ref"`
	ID          string   `json:"id,omitempty"`
	Alias       []string `json:"alias,omitempty"`
	Information string   `json:"information,omitempty"`
	Tag         string   `json:"tag,omitempty"`
}
