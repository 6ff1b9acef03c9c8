package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

// AccountRepo stores principals and their password hashes.
type AccountRepo struct{ db *pgxpool.Pool }

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(db *pgxpool.Pool) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `id, email, password_hash, role, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID returns the account or nil when it does not exist.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if IsNotFound(err) || IsInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

// GetByEmail returns the account or nil when it does not exist.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

// Create inserts a new account. A taken email yields apperr.ErrAlreadyExists.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	return insertAccount(ctx, r.db, a)
}

func insertAccount(ctx context.Context, q querier, a *domain.Account) error {
	err := q.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		a.ID, a.Email, a.PasswordHash, string(a.Role), a.CreatedAt,
	).Scan(&a.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}
