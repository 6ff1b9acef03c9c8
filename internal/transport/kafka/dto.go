package kafka

import (
	"time"

	"service-dispatch/internal/domain"
)

// EventDTO is the wire form of a lifecycle event.
type EventDTO struct {
	Type         string    `json:"type"`
	OrderID      string    `json:"order_id,omitempty"`
	Reference    string    `json:"order_ref,omitempty"`
	Status       string    `json:"status,omitempty"`
	PartnerID    string    `json:"partner_id,omitempty"`
	Availability string    `json:"availability,omitempty"`
	ActorID      string    `json:"actor_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// FromDomain converts domain.Event to EventDTO
func FromDomain(e domain.Event) EventDTO {
	return EventDTO{
		Type:         string(e.Type),
		OrderID:      e.OrderID,
		Reference:    e.Reference,
		Status:       string(e.Status),
		PartnerID:    e.PartnerID,
		Availability: string(e.Availability),
		ActorID:      e.ActorID,
		OccurredAt:   e.OccurredAt.UTC(),
	}
}
