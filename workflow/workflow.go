// Package workflow holds the vehicle status state machine of the service
// center. The same table decides which actions a dashboard offers and
// validates every attempted transition, both in the dashboard before a request
// is issued and in the data API before a change is stored.
//
// The graph is linear:
//
//	entered -> with_advisor -> with_technician -> service_done -> with_qc -> ready_for_delivery -> delivered
//
// There are no backward edges and no skips. The legacy "new" entry state has no
// outgoing transition.
package workflow

import (
	"errors"
	"fmt"

	"servicedesk/models"
)

// Action names a transition as offered on a dashboard.
type Action string

const (
	ActionAssign       Action = "assign"
	ActionToTechnician Action = "to_technician"
	ActionMarkDone     Action = "mark_done"
	ActionSendToQC     Action = "send_to_qc"
	ActionPass         Action = "pass"
	ActionDeliver      Action = "deliver"
)

var (
	// ErrUnknownAction is returned for an action that is not in the table.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidTransition is returned when the vehicle is not in the action's source state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrForbidden is returned when the acting role may not perform the transition.
	ErrForbidden = errors.New("role not permitted for transition")
)

// Transition is one row of the table.
type Transition struct {
	From   models.VehicleStatus
	Action Action
	Role   models.Role
	To     models.VehicleStatus
	// Label is the button text.
	Label string
	// Note is recorded in the vehicle history.
	Note string
	// Notice is shown to the actor after a successful call.
	Notice string
}

var table = []Transition{
	{models.StatusEntered, ActionAssign, models.RoleReceptionist, models.StatusWithAdvisor,
		"Assign to Advisor", "Assigned to advisor", "Assigned to advisor"},
	{models.StatusWithAdvisor, ActionToTechnician, models.RoleAdvisor, models.StatusWithTechnician,
		"Assign to Technician", "Assigned to technician", "Assigned to technician"},
	{models.StatusWithTechnician, ActionMarkDone, models.RoleTechnician, models.StatusServiceDone,
		"Mark Service Done", "Service completed", "Service marked done"},
	{models.StatusServiceDone, ActionSendToQC, models.RoleAdvisor, models.StatusWithQC,
		"Send to QC", "Sent to QC", "Sent to QC"},
	{models.StatusWithQC, ActionPass, models.RoleQC, models.StatusReadyForDelivery,
		"Mark Ready for Delivery", "QC passed", "QC approved"},
	{models.StatusReadyForDelivery, ActionDeliver, models.RoleReceptionist, models.StatusDelivered,
		"Deliver", "Delivered", "Delivered"},
}

// Table returns a copy of every transition in forward order.
func Table() []Transition {
	out := make([]Transition, len(table))
	copy(out, table)
	return out
}

// Lookup finds the transition for action from the given state.
func Lookup(from models.VehicleStatus, action Action) (Transition, bool) {
	for _, t := range table {
		if t.From == from && t.Action == action {
			return t, true
		}
	}
	return Transition{}, false
}

// ActionsFor returns the transitions role may start from status, in table order.
// Roles are matched literally: callers rendering a dashboard pass the
// dashboard's role, so an admin sees the same buttons as the role owner.
func ActionsFor(role models.Role, status models.VehicleStatus) []Transition {
	var out []Transition
	for _, t := range table {
		if t.From == status && t.Role == role {
			out = append(out, t)
		}
	}
	return out
}

// Check validates that role may apply action to a vehicle currently in from.
// Admin may apply any valid transition.
func Check(role models.Role, from models.VehicleStatus, action Action) (Transition, error) {
	known := false
	for _, t := range table {
		if t.Action == action {
			known = true
			break
		}
	}
	if !known {
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	t, ok := Lookup(from, action)
	if !ok {
		return Transition{}, fmt.Errorf("%w: cannot %s a vehicle in status %s", ErrInvalidTransition, action, from)
	}
	if !permitted(role, t) {
		return Transition{}, fmt.Errorf("%w: %s cannot %s", ErrForbidden, role, action)
	}
	return t, nil
}

// CheckStatusChange validates a change keyed by target status, as carried on
// the wire by PUT /api/vehicles/{id}.
func CheckStatusChange(role models.Role, from, to models.VehicleStatus) (Transition, error) {
	for _, t := range table {
		if t.From != from || t.To != to {
			continue
		}
		if !permitted(role, t) {
			return Transition{}, fmt.Errorf("%w: %s cannot move %s to %s", ErrForbidden, role, from, to)
		}
		return t, nil
	}
	return Transition{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}

func permitted(role models.Role, t Transition) bool {
	return role == t.Role || role == models.RoleAdmin
}
