//go:generate mockgen -source=contracts.go -destination=orders_mocks_test.go -package=orders_test

package orders

import (
	"context"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/ordertx"
)

// TxRepository is the transactional view used by assignment and status changes.
type TxRepository = ordertx.Repository

type orderRepository interface {
	WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByPartner(ctx context.Context, partnerID string, statuses []domain.OrderStatus) ([]domain.Order, error)
}
