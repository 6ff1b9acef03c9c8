package identity

import (
	"context"

	"service-dispatch/internal/domain"
)

type accountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
}

type tokenManager interface {
	Issue(principalID string) (string, error)
	Parse(token string) (string, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
