package partners

import (
	"context"
	"time"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/partnertx"
)

// TxRepository is the transactional view used by availability changes and provisioning.
type TxRepository = partnertx.Repository

type partnerRepository interface {
	WithTx(ctx context.Context, fn func(tx partnertx.Repository) error) error
	Get(ctx context.Context, id string) (*domain.Partner, error)
	GetByPrincipal(ctx context.Context, principalID string) (*domain.Partner, error)
	CountActiveOrders(ctx context.Context, partnerID string) (int, error)
	UpdateLocation(ctx context.Context, id string, loc domain.Location, at time.Time) (*domain.Partner, error)
	List(ctx context.Context) ([]domain.PartnerSummary, error)
	Stats(ctx context.Context, partnerID string) (domain.PartnerStats, error)
	RecentOrders(ctx context.Context, partnerID string, limit int) ([]domain.Order, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
}
