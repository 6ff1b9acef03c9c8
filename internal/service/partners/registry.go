package partners

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/ports/partnertx"
)

// RecentOrdersLimit is how many orders the partner details view shows.
const RecentOrdersLimit = 10

// Registry maps principals to partners and guards partner availability.
type Registry struct {
	repo             partnerRepository
	hasher           passwordHasher
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
	newID            func() string
}

// NewRegistry creates a new Registry.
func NewRegistry(repo partnerRepository, hasher passwordHasher, timeout time.Duration, logger logx.Logger) *Registry {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Registry{
		repo:             repo,
		hasher:           hasher,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
}

func (r *Registry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.operationTimeout)
}

var errNoProfile = apperr.New(apperr.ErrNotFound, "partner profile not found")

// FindByPrincipal returns the partner record of a delivery_partner principal.
func (r *Registry) FindByPrincipal(ctx context.Context, principalID string) (*domain.Partner, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p, err := r.repo.GetByPrincipal(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("get partner by principal: %w", err)
	}
	if p == nil {
		return nil, errNoProfile
	}
	return p, nil
}

// Get returns a partner by id.
func (r *Registry) Get(ctx context.Context, id string) (*domain.Partner, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get partner: %w", err)
	}
	if p == nil {
		return nil, apperr.New(apperr.ErrNotFound, "partner not found")
	}
	return p, nil
}

// CountActiveOrders returns how many assigned or picked-up orders the partner holds.
func (r *Registry) CountActiveOrders(ctx context.Context, partnerID string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.repo.CountActiveOrders(ctx, partnerID)
	if err != nil {
		return 0, fmt.Errorf("count active orders: %w", err)
	}
	return n, nil
}

// IsAssignable reports whether the partner exists and is available. It reserves nothing.
func (r *Registry) IsAssignable(ctx context.Context, partnerID string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p, err := r.repo.Get(ctx, partnerID)
	if err != nil {
		return false, fmt.Errorf("get partner: %w", err)
	}
	return p.Assignable(), nil
}

// SetAvailability changes the partner's availability. Going unavailable is
// refused while the partner holds active orders; the partner row stays locked
// from the count to the write so no assignment can slip in between.
func (r *Registry) SetAvailability(ctx context.Context, partnerID string, a domain.Availability) (*domain.Partner, error) {
	if !a.Valid() {
		return nil, apperr.Invalidf("invalid availability %q", a)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var result *domain.Partner
	err := r.repo.WithTx(ctx, func(tx partnertx.Repository) error {
		p, err := tx.GetPartnerForUpdate(ctx, partnerID)
		if err != nil {
			return err
		}
		if p == nil {
			return errNoProfile
		}

		if a == domain.Unavailable {
			n, err := tx.CountActiveOrders(ctx, partnerID)
			if err != nil {
				return err
			}
			if n > 0 {
				return apperr.New(apperr.ErrConflict, "cannot go unavailable with active orders")
			}
		}

		now := r.now()
		if err := tx.UpdateAvailability(ctx, partnerID, a, now); err != nil {
			return err
		}
		p.Availability = a
		p.UpdatedAt = now
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("partner availability changed",
		logx.String("event", "partner_availability_changed"),
		logx.String("partner_id", partnerID),
		logx.String("availability", string(a)),
	)
	return result, nil
}

// SetLocation stores the partner's latest coordinates.
func (r *Registry) SetLocation(ctx context.Context, partnerID string, loc domain.Location) (*domain.Partner, error) {
	loc.Address = strings.TrimSpace(loc.Address)
	if !loc.Valid() {
		return nil, apperr.Invalidf("latitude must be in [-90, 90] and longitude in [-180, 180]")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p, err := r.repo.UpdateLocation(ctx, partnerID, loc, r.now())
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	if p == nil {
		return nil, errNoProfile
	}
	return p, nil
}

// ProvisionInput carries the fields of a new partner account.
type ProvisionInput struct {
	Name          string
	Email         string
	Password      string
	ContactNumber string
	Location      domain.Location
}

// Provision creates a delivery_partner principal and its partner record together.
func (r *Registry) Provision(ctx context.Context, in ProvisionInput) (*domain.Partner, error) {
	in, err := validateProvision(in)
	if err != nil {
		return nil, err
	}

	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := r.now()
	account := &domain.Account{
		Principal: domain.Principal{
			ID:        r.newID(),
			Email:     in.Email,
			Role:      domain.RoleDeliveryPartner,
			CreatedAt: now,
		},
		PasswordHash: hash,
	}
	partner := &domain.Partner{
		ID:            r.newID(),
		PrincipalID:   account.ID,
		Name:          in.Name,
		ContactNumber: in.ContactNumber,
		Location:      in.Location,
		Availability:  domain.Available,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err = r.repo.WithTx(ctx, func(tx partnertx.Repository) error {
		if err := tx.InsertAccount(ctx, account); err != nil {
			return err
		}
		return tx.InsertPartner(ctx, partner)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return nil, apperr.New(apperr.ErrAlreadyExists, "user with this email already exists")
		}
		return nil, fmt.Errorf("provision partner: %w", err)
	}

	r.logger.Info("partner provisioned",
		logx.String("event", "partner_provisioned"),
		logx.String("partner_id", partner.ID),
		logx.String("principal_id", account.ID),
	)
	return partner, nil
}

// List returns every partner with its total and active order counts.
func (r *Registry) List(ctx context.Context) ([]domain.PartnerSummary, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	list, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	return list, nil
}

// Stats returns the partner's order counters.
func (r *Registry) Stats(ctx context.Context, partnerID string) (domain.PartnerStats, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	st, err := r.repo.Stats(ctx, partnerID)
	if err != nil {
		return domain.PartnerStats{}, fmt.Errorf("partner stats: %w", err)
	}
	return st, nil
}

// Details returns a partner with its most recent orders and counters.
func (r *Registry) Details(ctx context.Context, partnerID string) (*domain.PartnerDetails, error) {
	p, err := r.Get(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	recent, err := r.repo.RecentOrders(ctx, partnerID, RecentOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	st, err := r.repo.Stats(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("partner stats: %w", err)
	}
	return &domain.PartnerDetails{Partner: *p, RecentOrders: recent, Stats: st}, nil
}

func validateProvision(in ProvisionInput) (ProvisionInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Location.Address = strings.TrimSpace(in.Location.Address)

	email, ok := domain.NormalizeEmail(in.Email)
	switch {
	case in.Name == "":
		return in, apperr.Invalidf("name is required")
	case !ok:
		return in, apperr.Invalidf("a valid email is required")
	case len(in.Password) < domain.MinPasswordLength:
		return in, apperr.Invalidf("password must be at least %d characters", domain.MinPasswordLength)
	case !domain.ValidateContactNumber(in.ContactNumber):
		return in, apperr.Invalidf("contactNumber must contain 7 to 15 digits")
	case !in.Location.Valid():
		return in, apperr.Invalidf("currentLocation must have latitude in [-90, 90] and longitude in [-180, 180]")
	}
	in.Email = email
	return in, nil
}
