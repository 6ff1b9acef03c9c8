package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

// Resolver turns a bearer credential into the principal it names.
type Resolver struct {
	accounts         accountRepository
	tokens           tokenManager
	operationTimeout time.Duration
}

// NewResolver creates a new Resolver.
func NewResolver(accounts accountRepository, tokens tokenManager, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{accounts: accounts, tokens: tokens, operationTimeout: timeout}
}

// Resolve fails with apperr.ErrUnauthenticated when the credential is missing,
// does not verify, or names a principal that no longer exists.
func (r *Resolver) Resolve(ctx context.Context, credential string) (*domain.Principal, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, apperr.New(apperr.ErrUnauthenticated, "authentication required")
	}

	id, err := r.tokens.Parse(credential)
	if err != nil {
		return nil, apperr.New(apperr.ErrUnauthenticated, "invalid or expired token")
	}

	ctx, cancel := context.WithTimeout(ctx, r.operationTimeout)
	defer cancel()

	acc, err := r.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get principal: %w", err)
	}
	if acc == nil {
		return nil, apperr.New(apperr.ErrUnauthenticated, "principal no longer exists")
	}
	p := acc.Principal
	return &p, nil
}
