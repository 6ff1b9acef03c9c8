package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

var errBadCredentials = apperr.New(apperr.ErrInvalidCredentials, "invalid email or password")

// Session is the result of a successful login.
type Session struct {
	Token     string
	Principal domain.Principal
}

// Accounts handles login and registration.
type Accounts struct {
	repo             accountRepository
	tokens           tokenManager
	hasher           passwordHasher
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
	newID            func() string
}

// NewAccounts creates a new Accounts service.
func NewAccounts(repo accountRepository, tokens tokenManager, hasher passwordHasher, timeout time.Duration, logger logx.Logger) *Accounts {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Accounts{
		repo:             repo,
		tokens:           tokens,
		hasher:           hasher,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
}

// Login checks the password and issues a credential. Every failure, including
// an unknown email, is reported as apperr.ErrInvalidCredentials.
func (s *Accounts) Login(ctx context.Context, email, password string) (*Session, error) {
	email, ok := domain.NormalizeEmail(email)
	if !ok || password == "" {
		return nil, errBadCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if acc == nil {
		return nil, errBadCredentials
	}
	if err := s.hasher.Compare(acc.PasswordHash, password); err != nil {
		s.logger.Debug("password mismatch", logx.String("principal_id", acc.ID))
		return nil, errBadCredentials
	}

	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Principal: acc.Principal}, nil
}

// Register creates a principal with the given role.
func (s *Accounts) Register(ctx context.Context, email, password string, role domain.Role) (*domain.Principal, error) {
	email, ok := domain.NormalizeEmail(email)
	switch {
	case !ok:
		return nil, apperr.Invalidf("a valid email is required")
	case len(password) < domain.MinPasswordLength:
		return nil, apperr.Invalidf("password must be at least %d characters", domain.MinPasswordLength)
	case !role.Valid():
		return nil, apperr.Invalidf("role must be admin or delivery_partner")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	acc := &domain.Account{
		Principal: domain.Principal{
			ID:        s.newID(),
			Email:     email,
			Role:      role,
			CreatedAt: s.now(),
		},
		PasswordHash: hash,
	}

	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, acc); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return nil, apperr.New(apperr.ErrAlreadyExists, "user with this email already exists")
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("principal registered",
		logx.String("event", "principal_registered"),
		logx.String("principal_id", acc.ID),
		logx.String("role", string(role)),
	)
	p := acc.Principal
	return &p, nil
}
