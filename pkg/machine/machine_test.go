package machine_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_FromFree(t *testing.T) {
	to, err := machine.Role.Transition(machine.StatusFree, machine.ActionHire)
	require.NoError(t, err)
	assert.Equal(t, machine.StatusMember, to)

	for _, action := range []machine.Action{machine.ActionAppoint, machine.ActionDismiss, machine.ActionFire} {
		t.Run(string(action), func(t *testing.T) {
			_, err := machine.Role.Transition(machine.StatusFree, action)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)

			var terr *machine.TransitionError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, machine.StatusFree, terr.From)
			assert.Equal(t, action, terr.Action)
		})
	}
}

func TestRole_FireFromOnDuty(t *testing.T) {
	direct, err := machine.Role.Transition(machine.StatusOnDuty, machine.ActionFire)
	require.NoError(t, err)

	dismissed, err := machine.Role.Transition(machine.StatusOnDuty, machine.ActionDismiss)
	require.NoError(t, err)
	viaDismiss, err := machine.Role.Transition(dismissed, machine.ActionFire)
	require.NoError(t, err)

	assert.Equal(t, machine.StatusFree, direct)
	assert.Equal(t, direct, viaDismiss)
}

func TestRole_Allowed(t *testing.T) {
	assert.Equal(t, []machine.Action{machine.ActionHire}, machine.Role.Allowed(machine.StatusFree))
	assert.ElementsMatch(t,
		[]machine.Action{machine.ActionAppoint, machine.ActionFire},
		machine.Role.Allowed(machine.StatusMember))
	assert.ElementsMatch(t,
		[]machine.Action{machine.ActionDismiss, machine.ActionFire},
		machine.Role.Allowed(machine.StatusOnDuty))
}

func TestPosition(t *testing.T) {
	filled, err := machine.Position.Transition(machine.StatusVacant, machine.ActionAppoint)
	require.NoError(t, err)
	assert.Equal(t, machine.StatusFilled, filled)

	_, err = machine.Position.Transition(machine.StatusFilled, machine.ActionAppoint)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "a filled position cannot be appointed again")

	vacant, err := machine.Position.Transition(machine.StatusFilled, machine.ActionDismiss)
	require.NoError(t, err)
	assert.Equal(t, machine.StatusVacant, vacant)

	_, err = machine.Position.Transition(machine.StatusVacant, machine.ActionDismiss)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestValidateOneToOne(t *testing.T) {
	assert.NoError(t, machine.ValidateOneToOne(machine.PositionRole, "cto", nil, "sean"))
	assert.NoError(t, machine.ValidateOneToOne(machine.PositionRole, "cto", []string{"sean"}, "sean"))

	err := machine.ValidateOneToOne(machine.PositionRole, "cto", []string{"sean"}, "nuwa")
	assert.ErrorIs(t, err, domain.ErrCardinalityConflict)
	assert.NotErrorIs(t, err, domain.ErrInvalidTransition, "cardinality errors are distinct from transition errors")

	var cerr *machine.CardinalityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"sean"}, cerr.Existing)
	assert.Contains(t, err.Error(), "position is held by one role")
}
