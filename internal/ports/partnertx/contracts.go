package partnertx

import (
	"context"
	"time"

	"service-dispatch/internal/domain"
)

// Repository is the partner store as seen inside a transaction.
// Lookups return nil, nil when the row does not exist.
type Repository interface {
	GetPartnerForUpdate(ctx context.Context, id string) (*domain.Partner, error)
	CountActiveOrders(ctx context.Context, partnerID string) (int, error)
	UpdateAvailability(ctx context.Context, id string, a domain.Availability, at time.Time) error
	InsertAccount(ctx context.Context, a *domain.Account) error
	InsertPartner(ctx context.Context, p *domain.Partner) error
}
