package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// Runtime mutates and queries a typed tree of nodes connected by relations.
// Implementations must keep refs stable: no operation may change the ref of a node
// it does not create or remove.
type Runtime interface {
	// Create materializes typ under the node at parentRef ("" creates a root).
	// Returns domain.ErrNotFound if parentRef does not resolve.
	Create(ctx context.Context, parentRef string, typ *domain.Structure, attrs domain.Attributes) (*domain.Node, error)

	// Remove deletes the node and its whole subtree, together with every relation touching them.
	// Removing an unknown ref is a no-op.
	Remove(ctx context.Context, ref string) error

	// Transform creates a target instance under the unique node whose type is target's parent type.
	// The source node is left untouched. Returns domain.ErrNoContainer or domain.ErrAmbiguousContainer
	// when that container cannot be determined.
	Transform(ctx context.Context, sourceRef string, target *domain.Structure, information string) (*domain.Node, error)

	// Link relates two nodes in both directions. Linking twice is a no-op.
	Link(ctx context.Context, fromRef, toRef, relation, reverse string) error

	// Unlink removes both directions of a relation, if present.
	Unlink(ctx context.Context, fromRef, toRef, relation, reverse string) error

	// Tag sets the free-form tag of a node ("" clears it).
	Tag(ctx context.Context, ref, tag string) error

	// Project returns the State of the node at ref. Returns domain.ErrNotFound if it does not resolve.
	Project(ctx context.Context, ref string) (*domain.State, error)

	// Roots returns every node without a parent, in creation order.
	Roots(ctx context.Context) ([]*domain.Node, error)
}
