package machine

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Status is a derived lifecycle status.
type Status string

const (
	StatusFree   Status = "free"    // Role without organization
	StatusMember Status = "member"  // Role belonging to an organization
	StatusOnDuty Status = "on_duty" // Member holding a position

	StatusVacant Status = "vacant" // Position nobody holds
	StatusFilled Status = "filled" // Position held by a role
)

// Action is an organizational operation.
type Action string

const (
	ActionHire    Action = "hire"
	ActionFire    Action = "fire"
	ActionAppoint Action = "appoint"
	ActionDismiss Action = "dismiss"
)

// Rule is one row of a transition table.
type Rule struct {
	From   Status
	Action Action
	To     Status
}

// Machine is a named transition table.
type Machine struct {
	Name  string
	Rules []Rule
}

// Role is the lifecycle of a role (individual) towards organizations and positions.
// Fire is valid from on_duty too and implies a dismiss.
var Role = Machine{
	Name: "role",
	Rules: []Rule{
		{From: StatusFree, Action: ActionHire, To: StatusMember},
		{From: StatusMember, Action: ActionAppoint, To: StatusOnDuty},
		{From: StatusOnDuty, Action: ActionDismiss, To: StatusMember},
		{From: StatusMember, Action: ActionFire, To: StatusFree},
		{From: StatusOnDuty, Action: ActionFire, To: StatusFree},
	},
}

// Position is the lifecycle of a position inside an organization.
var Position = Machine{
	Name: "position",
	Rules: []Rule{
		{From: StatusVacant, Action: ActionAppoint, To: StatusFilled},
		{From: StatusFilled, Action: ActionDismiss, To: StatusVacant},
	},
}

// TransitionError reports an action the table does not allow from a status.
type TransitionError struct {
	Machine string
	From    Status
	Action  Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from %q: %v", e.Machine, e.Action, e.From, domain.ErrInvalidTransition)
}

// Unwrap allows errors.Is(err, domain.ErrInvalidTransition).
func (e *TransitionError) Unwrap() error {
	return domain.ErrInvalidTransition
}

// Transition returns the status reached by applying action from status from.
func (m Machine) Transition(from Status, action Action) (Status, error) {
	for _, r := range m.Rules {
		if r.From == from && r.Action == action {
			return r.To, nil
		}
	}
	return "", &TransitionError{Machine: m.Name, From: from, Action: action}
}

// Allowed lists the actions valid from a status, in table order.
func (m Machine) Allowed(from Status) []Action {
	var actions []Action
	for _, r := range m.Rules {
		if r.From == from {
			actions = append(actions, r.Action)
		}
	}
	return actions
}
