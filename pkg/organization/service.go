// Package organization implements hire, fire, appoint and dismiss on top of a
// ports.Runtime. Lifecycle status is never stored: it is derived from the
// relations a role or position currently has and validated by pkg/machine
// before every mutation.
package organization

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/machine"
	"github.com/aretw0/arbor/pkg/ports"
)

// Relation names written by the service.
const (
	RelMembership  = "membership"  // organization -> role
	RelBelong      = "belong"      // role -> organization
	RelAppointment = "appointment" // position -> role
	RelServe       = "serve"       // role -> position
)

// Service runs organizational operations against a runtime.
type Service struct {
	runtime ports.Runtime
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a service over rt.
func New(rt ports.Runtime, opts ...Option) *Service {
	s := &Service{runtime: rt, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RoleStatus derives the status of a role from its belong and serve relations.
func (s *Service) RoleStatus(ctx context.Context, roleRef string) (machine.Status, error) {
	role, err := s.runtime.Project(ctx, roleRef)
	if err != nil {
		return "", err
	}
	return roleStatus(role), nil
}

// PositionStatus derives the status of a position from its appointment relations.
func (s *Service) PositionStatus(ctx context.Context, positionRef string) (machine.Status, error) {
	pos, err := s.runtime.Project(ctx, positionRef)
	if err != nil {
		return "", err
	}
	return positionStatus(pos), nil
}

func roleStatus(role *domain.State) machine.Status {
	switch {
	case len(role.LinksTo(RelServe)) > 0:
		return machine.StatusOnDuty
	case len(role.LinksTo(RelBelong)) > 0:
		return machine.StatusMember
	default:
		return machine.StatusFree
	}
}

func positionStatus(pos *domain.State) machine.Status {
	if len(pos.LinksTo(RelAppointment)) > 0 {
		return machine.StatusFilled
	}
	return machine.StatusVacant
}

func targetRefs(st *domain.State, relation string) []string {
	targets := st.LinksTo(relation)
	refs := make([]string, 0, len(targets))
	for _, t := range targets {
		refs = append(refs, t.Ref)
	}
	return refs
}

// Hire makes a free role a member of an organization.
func (s *Service) Hire(ctx context.Context, orgRef, roleRef string) error {
	role, err := s.runtime.Project(ctx, roleRef)
	if err != nil {
		return fmt.Errorf("hire: %w", err)
	}
	if err := machine.ValidateOneToOne(machine.RoleOrganization, roleRef, targetRefs(role, RelBelong), orgRef); err != nil {
		return fmt.Errorf("hire: %w", err)
	}
	if _, err := machine.Role.Transition(roleStatus(role), machine.ActionHire); err != nil {
		return fmt.Errorf("hire: %w", err)
	}

	if err := s.runtime.Link(ctx, orgRef, roleRef, RelMembership, RelBelong); err != nil {
		return fmt.Errorf("hire: %w", err)
	}
	s.logger.Info("Role hired", "org", orgRef, "role", roleRef)
	return nil
}

// Fire removes a role from its organization. A role on duty is dismissed from
// its position first.
func (s *Service) Fire(ctx context.Context, orgRef, roleRef string) error {
	role, err := s.runtime.Project(ctx, roleRef)
	if err != nil {
		return fmt.Errorf("fire: %w", err)
	}
	status := roleStatus(role)
	if _, err := machine.Role.Transition(status, machine.ActionFire); err != nil {
		return fmt.Errorf("fire: %w", err)
	}
	if !slices.Contains(targetRefs(role, RelBelong), orgRef) {
		return fmt.Errorf("fire: role %q is not a member of %q: %w", roleRef, orgRef, domain.ErrInvalidTransition)
	}

	if status == machine.StatusOnDuty {
		for _, posRef := range targetRefs(role, RelServe) {
			if err := s.runtime.Unlink(ctx, posRef, roleRef, RelAppointment, RelServe); err != nil {
				return fmt.Errorf("fire: dismiss from %q: %w", posRef, err)
			}
			s.logger.Info("Role dismissed", "position", posRef, "role", roleRef, "reason", "fire")
		}
	}

	if err := s.runtime.Unlink(ctx, orgRef, roleRef, RelMembership, RelBelong); err != nil {
		return fmt.Errorf("fire: %w", err)
	}
	s.logger.Info("Role fired", "org", orgRef, "role", roleRef)
	return nil
}

// Appoint assigns a member role to a vacant position. Cardinality is checked
// before any transition so double appointments report a conflict.
func (s *Service) Appoint(ctx context.Context, positionRef, roleRef string) error {
	role, err := s.runtime.Project(ctx, roleRef)
	if err != nil {
		return fmt.Errorf("appoint: %w", err)
	}
	pos, err := s.runtime.Project(ctx, positionRef)
	if err != nil {
		return fmt.Errorf("appoint: %w", err)
	}

	if err := machine.ValidateOneToOne(machine.RolePosition, roleRef, targetRefs(role, RelServe), positionRef); err != nil {
		return fmt.Errorf("appoint: %w", err)
	}
	if err := machine.ValidateOneToOne(machine.PositionRole, positionRef, targetRefs(pos, RelAppointment), roleRef); err != nil {
		return fmt.Errorf("appoint: %w", err)
	}
	if _, err := machine.Role.Transition(roleStatus(role), machine.ActionAppoint); err != nil {
		return fmt.Errorf("appoint: %w", err)
	}
	if _, err := machine.Position.Transition(positionStatus(pos), machine.ActionAppoint); err != nil {
		return fmt.Errorf("appoint: %w", err)
	}

	if err := s.runtime.Link(ctx, positionRef, roleRef, RelAppointment, RelServe); err != nil {
		return fmt.Errorf("appoint: %w", err)
	}
	s.logger.Info("Role appointed", "position", positionRef, "role", roleRef)
	return nil
}

// Dismiss releases a role from the position it holds.
func (s *Service) Dismiss(ctx context.Context, positionRef, roleRef string) error {
	role, err := s.runtime.Project(ctx, roleRef)
	if err != nil {
		return fmt.Errorf("dismiss: %w", err)
	}
	pos, err := s.runtime.Project(ctx, positionRef)
	if err != nil {
		return fmt.Errorf("dismiss: %w", err)
	}

	if _, err := machine.Role.Transition(roleStatus(role), machine.ActionDismiss); err != nil {
		return fmt.Errorf("dismiss: %w", err)
	}
	if _, err := machine.Position.Transition(positionStatus(pos), machine.ActionDismiss); err != nil {
		return fmt.Errorf("dismiss: %w", err)
	}
	if !slices.Contains(targetRefs(role, RelServe), positionRef) {
		return fmt.Errorf("dismiss: role %q does not hold %q: %w", roleRef, positionRef, domain.ErrInvalidTransition)
	}

	if err := s.runtime.Unlink(ctx, positionRef, roleRef, RelAppointment, RelServe); err != nil {
		return fmt.Errorf("dismiss: %w", err)
	}
	s.logger.Info("Role dismissed", "position", positionRef, "role", roleRef)
	return nil
}
