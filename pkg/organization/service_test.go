package organization_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/machine"
	"github.com/aretw0/arbor/pkg/organization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	society    = domain.NewStructure("society", "The world", nil)
	individual = domain.NewStructure("individual", "A role", society)
	org        = domain.NewStructure("organization", "A group", society)
	position   = domain.NewStructure("position", "A seat", org)
)

type world struct {
	rt              *memory.Runtime
	svc             *organization.Service
	acme, other     string
	sean, nuwa      string
	architect, lead string
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	rt := memory.NewRuntime()

	root, err := rt.Create(ctx, "", society, domain.Attributes{})
	require.NoError(t, err)
	create := func(parent string, typ *domain.Structure, id string) string {
		n, err := rt.Create(ctx, parent, typ, domain.Attributes{ID: id})
		require.NoError(t, err)
		return n.Ref
	}

	w := &world{rt: rt, svc: organization.New(rt)}
	w.acme = create(root.Ref, org, "acme")
	w.other = create(root.Ref, org, "other")
	w.sean = create(root.Ref, individual, "sean")
	w.nuwa = create(root.Ref, individual, "nuwa")
	w.architect = create(w.acme, position, "architect")
	w.lead = create(w.acme, position, "lead")
	return w
}

func (w *world) roleStatus(t *testing.T, ref string) machine.Status {
	t.Helper()
	s, err := w.svc.RoleStatus(context.Background(), ref)
	require.NoError(t, err)
	return s
}

func (w *world) positionStatus(t *testing.T, ref string) machine.Status {
	t.Helper()
	s, err := w.svc.PositionStatus(context.Background(), ref)
	require.NoError(t, err)
	return s
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	assert.Equal(t, machine.StatusFree, w.roleStatus(t, w.sean))
	assert.Equal(t, machine.StatusVacant, w.positionStatus(t, w.architect))

	require.NoError(t, w.svc.Hire(ctx, w.acme, w.sean))
	assert.Equal(t, machine.StatusMember, w.roleStatus(t, w.sean))

	require.NoError(t, w.svc.Appoint(ctx, w.architect, w.sean))
	assert.Equal(t, machine.StatusOnDuty, w.roleStatus(t, w.sean))
	assert.Equal(t, machine.StatusFilled, w.positionStatus(t, w.architect))

	require.NoError(t, w.svc.Dismiss(ctx, w.architect, w.sean))
	assert.Equal(t, machine.StatusMember, w.roleStatus(t, w.sean))
	assert.Equal(t, machine.StatusVacant, w.positionStatus(t, w.architect))

	require.NoError(t, w.svc.Fire(ctx, w.acme, w.sean))
	assert.Equal(t, machine.StatusFree, w.roleStatus(t, w.sean))

	acme, err := w.rt.Project(ctx, w.acme)
	require.NoError(t, err)
	assert.Empty(t, acme.Links)
}

func TestService_FreeRoleOnlyHires(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	assert.ErrorIs(t, w.svc.Appoint(ctx, w.architect, w.sean), domain.ErrInvalidTransition)
	assert.ErrorIs(t, w.svc.Dismiss(ctx, w.architect, w.sean), domain.ErrInvalidTransition)
	assert.ErrorIs(t, w.svc.Fire(ctx, w.acme, w.sean), domain.ErrInvalidTransition)
	assert.Equal(t, machine.StatusVacant, w.positionStatus(t, w.architect))
}

func TestService_FireOnDutyAutoDismisses(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	require.NoError(t, w.svc.Hire(ctx, w.acme, w.sean))
	require.NoError(t, w.svc.Appoint(ctx, w.architect, w.sean))

	require.NoError(t, w.svc.Fire(ctx, w.acme, w.sean))
	assert.Equal(t, machine.StatusFree, w.roleStatus(t, w.sean))
	assert.Equal(t, machine.StatusVacant, w.positionStatus(t, w.architect))
}

func TestService_HireCardinality(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	require.NoError(t, w.svc.Hire(ctx, w.acme, w.sean))

	err := w.svc.Hire(ctx, w.other, w.sean)
	assert.ErrorIs(t, err, domain.ErrCardinalityConflict)
	var ce *machine.CardinalityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, machine.RoleOrganization, ce.Constraint)

	assert.ErrorIs(t, w.svc.Hire(ctx, w.acme, w.sean), domain.ErrInvalidTransition, "already a member")
}

func TestService_DoubleAppointLeavesFirstUntouched(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	require.NoError(t, w.svc.Hire(ctx, w.acme, w.sean))
	require.NoError(t, w.svc.Hire(ctx, w.acme, w.nuwa))
	require.NoError(t, w.svc.Appoint(ctx, w.architect, w.sean))

	err := w.svc.Appoint(ctx, w.architect, w.nuwa)
	assert.ErrorIs(t, err, domain.ErrCardinalityConflict)

	assert.Equal(t, machine.StatusMember, w.roleStatus(t, w.nuwa))
	pos, err := w.rt.Project(ctx, w.architect)
	require.NoError(t, err)
	holders := pos.LinksTo(organization.RelAppointment)
	require.Len(t, holders, 1)
	assert.Equal(t, "sean", holders[0].ID)

	err = w.svc.Appoint(ctx, w.lead, w.sean)
	var ce *machine.CardinalityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, machine.RolePosition, ce.Constraint)
}

func TestService_FireFromWrongOrganization(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	require.NoError(t, w.svc.Hire(ctx, w.acme, w.sean))
	assert.ErrorIs(t, w.svc.Fire(ctx, w.other, w.sean), domain.ErrInvalidTransition)
	assert.Equal(t, machine.StatusMember, w.roleStatus(t, w.sean))
}

func TestService_DismissWrongPosition(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	require.NoError(t, w.svc.Hire(ctx, w.acme, w.sean))
	require.NoError(t, w.svc.Hire(ctx, w.acme, w.nuwa))
	require.NoError(t, w.svc.Appoint(ctx, w.architect, w.sean))
	require.NoError(t, w.svc.Appoint(ctx, w.lead, w.nuwa))

	assert.ErrorIs(t, w.svc.Dismiss(ctx, w.lead, w.sean), domain.ErrInvalidTransition)
}

func TestService_MissingNodes(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	assert.ErrorIs(t, w.svc.Hire(ctx, w.acme, "ghost"), domain.ErrNotFound)
	assert.ErrorIs(t, w.svc.Hire(ctx, "ghost", w.sean), domain.ErrNotFound)
	_, err := w.svc.RoleStatus(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
