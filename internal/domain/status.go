package domain

import "service-dispatch/internal/apperr"

// OrderStatus is a state of the order lifecycle.
type OrderStatus string

// List of order statuses
const (
	StatusPending   OrderStatus = "pending"
	StatusAssigned  OrderStatus = "assigned"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusDelivered OrderStatus = "delivered"
)

var allowedStatuses = [...]OrderStatus{
	StatusPending, StatusAssigned, StatusPickedUp, StatusDelivered,
}

// ActiveStatuses are the statuses in which an order occupies its partner.
var ActiveStatuses = []OrderStatus{StatusAssigned, StatusPickedUp}

// transitions lists every legal next state. Anything absent is rejected,
// including staying in the same state.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusAssigned},
	StatusAssigned:  {StatusPickedUp},
	StatusPickedUp:  {StatusDelivered},
	StatusDelivered: {},
}

// Valid checks if the OrderStatus is valid
func (s OrderStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Active reports whether the order is assigned and not yet delivered.
func (s OrderStatus) Active() bool {
	return s == StatusAssigned || s == StatusPickedUp
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the states reachable from s in one step.
func NextStatuses(s OrderStatus) []OrderStatus {
	return append([]OrderStatus(nil), transitions[s]...)
}

// CheckTransition returns an *apperr.TransitionError when from -> to is not allowed.
func CheckTransition(from, to OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return &apperr.TransitionError{From: string(from), To: string(to)}
}
