package domain

import "time"

// Order is a delivery order. AssignedTo is nil exactly while the order is pending.
type Order struct {
	ID               string
	Reference        string
	ItemName         string
	CustomerName     string
	DeliveryLocation Location
	Status           OrderStatus
	AssignedTo       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsAssignedTo reports whether partnerID holds the order.
func (o *Order) IsAssignedTo(partnerID string) bool {
	return o.AssignedTo != nil && *o.AssignedTo == partnerID
}

// StatusChange is a compare-and-set write on an order's status.
// The write applies only while the stored status still equals From.
// A non-nil AssignTo also sets the assignee.
type StatusChange struct {
	OrderID  string
	From     OrderStatus
	To       OrderStatus
	AssignTo *string
	At       time.Time
}

// EventType names a lifecycle event.
type EventType string

// List of lifecycle events
const (
	EventOrderCreated        EventType = "order.created"
	EventOrderAssigned       EventType = "order.assigned"
	EventOrderStatusChanged  EventType = "order.status_changed"
	EventAvailabilityChanged EventType = "partner.availability_changed"
)

// Event is published after a committed lifecycle change.
type Event struct {
	Type         EventType
	OrderID      string
	Reference    string
	Status       OrderStatus
	PartnerID    string
	Availability Availability
	ActorID      string
	OccurredAt   time.Time
}

// Key is the partitioning key of the event.
func (e Event) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.PartnerID
}
