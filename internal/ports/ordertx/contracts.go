package ordertx

import (
	"context"

	"service-dispatch/internal/domain"
)

// Repository is the order store as seen inside a transaction.
// Lookups return nil, nil when the row does not exist.
type Repository interface {
	GetOrderForUpdate(ctx context.Context, id string) (*domain.Order, error)
	GetPartnerForShare(ctx context.Context, id string) (*domain.Partner, error)
	ChangeStatus(ctx context.Context, c domain.StatusChange) (bool, error)
}
