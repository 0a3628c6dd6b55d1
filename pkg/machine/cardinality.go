package machine

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Constraint names a one-to-one rule.
type Constraint string

const (
	RoleOrganization Constraint = "role belongs to one organization"
	RolePosition     Constraint = "role holds one position"
	PositionRole     Constraint = "position is held by one role"
)

// CardinalityError reports an entity that already has a conflicting assignment.
type CardinalityError struct {
	Constraint Constraint
	Entity     string
	Existing   []string
	Incoming   string
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%s: %q is already assigned to %s, cannot assign %q: %v",
		e.Constraint, e.Entity, strings.Join(e.Existing, ", "), e.Incoming, domain.ErrCardinalityConflict)
}

// Unwrap allows errors.Is(err, domain.ErrCardinalityConflict).
func (e *CardinalityError) Unwrap() error {
	return domain.ErrCardinalityConflict
}

// ValidateOneToOne fails when entity already has an assignment other than incoming.
// Re-assigning the same counterpart is not a conflict.
func ValidateOneToOne(c Constraint, entity string, existing []string, incoming string) error {
	var others []string
	for _, e := range existing {
		if e != incoming {
			others = append(others, e)
		}
	}
	if len(others) == 0 {
		return nil
	}
	return &CardinalityError{Constraint: c, Entity: entity, Existing: others, Incoming: incoming}
}
