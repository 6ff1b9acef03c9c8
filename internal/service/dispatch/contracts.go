package dispatch

import (
	"context"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/identity"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/service/partners"
)

type principalResolver interface {
	Resolve(ctx context.Context, credential string) (*domain.Principal, error)
}

type accountService interface {
	Login(ctx context.Context, email, password string) (*identity.Session, error)
	Register(ctx context.Context, email, password string, role domain.Role) (*domain.Principal, error)
}

type partnerRegistry interface {
	FindByPrincipal(ctx context.Context, principalID string) (*domain.Partner, error)
	SetAvailability(ctx context.Context, partnerID string, a domain.Availability) (*domain.Partner, error)
	SetLocation(ctx context.Context, partnerID string, loc domain.Location) (*domain.Partner, error)
	Provision(ctx context.Context, in partners.ProvisionInput) (*domain.Partner, error)
	List(ctx context.Context) ([]domain.PartnerSummary, error)
	Details(ctx context.Context, partnerID string) (*domain.PartnerDetails, error)
	Stats(ctx context.Context, partnerID string) (domain.PartnerStats, error)
}

type orderEngine interface {
	Create(ctx context.Context, in orders.CreateInput) (*domain.Order, error)
	Assign(ctx context.Context, orderID, partnerID string) (*domain.Order, error)
	AdvanceStatus(ctx context.Context, orderID, partnerID string, to domain.OrderStatus) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListForPartner(ctx context.Context, partnerID string, status *domain.OrderStatus) ([]domain.Order, error)
	ListActiveForPartner(ctx context.Context, partnerID string) ([]domain.Order, error)
}

// EventPublisher delivers lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, e domain.Event) error
}
