// Package dispatch runs client commands: authorize the caller, resolve the
// caller's partner record when needed, then hand over to the registry or the engine.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/access"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/service/partners"
)

// Dispatcher has one method per client verb.
type Dispatcher struct {
	resolver  principalResolver
	accounts  accountService
	registry  partnerRegistry
	engine    orderEngine
	publisher EventPublisher
	commands  *prometheus.CounterVec
	logger    logx.Logger
	now       func() time.Time
}

// Deps groups the collaborators of a Dispatcher.
type Deps struct {
	Resolver  principalResolver
	Accounts  accountService
	Registry  partnerRegistry
	Engine    orderEngine
	Publisher EventPublisher
	Commands  *prometheus.CounterVec
	Logger    logx.Logger
}

// New creates a new Dispatcher. Publisher, Commands and Logger are optional.
func New(d Deps) *Dispatcher {
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logx.Nop()
	}
	return &Dispatcher{
		resolver:  d.Resolver,
		accounts:  d.Accounts,
		registry:  d.Registry,
		engine:    d.Engine,
		publisher: d.Publisher,
		commands:  d.Commands,
		logger:    d.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token     string
	Principal domain.Principal
	Partner   *domain.Partner
}

// Me describes the calling principal.
type Me struct {
	Principal domain.Principal
	Partner   *domain.Partner
}

// Profile is the partner's own view of itself.
type Profile struct {
	Partner domain.Partner
	Stats   domain.PartnerStats
}

// Resolve maps a bearer credential to its principal.
func (d *Dispatcher) Resolve(ctx context.Context, credential string) (*domain.Principal, error) {
	return d.resolver.Resolve(ctx, credential)
}

// Login authenticates by email and password.
func (d *Dispatcher) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	defer d.observe("login", &err)

	session, err := d.accounts.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	partner, err := d.optionalPartner(ctx, &session.Principal)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: session.Token, Principal: session.Principal, Partner: partner}, nil
}

// Register creates a principal.
func (d *Dispatcher) Register(ctx context.Context, email, password string, role domain.Role) (p *domain.Principal, err error) {
	defer d.observe("register", &err)
	return d.accounts.Register(ctx, email, password, role)
}

// Me returns the caller and, for partners, their partner record.
func (d *Dispatcher) Me(ctx context.Context, caller *domain.Principal) (res *Me, err error) {
	defer d.observe("me", &err)

	if err := access.AnyRole.Authorize(caller); err != nil {
		return nil, err
	}
	partner, err := d.optionalPartner(ctx, caller)
	if err != nil {
		return nil, err
	}
	return &Me{Principal: *caller, Partner: partner}, nil
}

// CreateOrder adds a pending order.
func (d *Dispatcher) CreateOrder(ctx context.Context, caller *domain.Principal, in orders.CreateInput) (o *domain.Order, err error) {
	defer d.observe("create_order", &err)

	if err := access.AdminOnly.Authorize(caller); err != nil {
		return nil, err
	}
	o, err = d.engine.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	d.publish(ctx, domain.Event{
		Type:      domain.EventOrderCreated,
		OrderID:   o.ID,
		Reference: o.Reference,
		Status:    o.Status,
		ActorID:   caller.ID,
	})
	return o, nil
}

// ListOrders returns every order.
func (d *Dispatcher) ListOrders(ctx context.Context, caller *domain.Principal) (list []domain.Order, err error) {
	defer d.observe("list_orders", &err)

	if err := access.AdminOnly.Authorize(caller); err != nil {
		return nil, err
	}
	return d.engine.List(ctx)
}

// GetOrder returns one order.
func (d *Dispatcher) GetOrder(ctx context.Context, caller *domain.Principal, orderID string) (o *domain.Order, err error) {
	defer d.observe("get_order", &err)

	if err := access.AdminOnly.Authorize(caller); err != nil {
		return nil, err
	}
	if orderID, err = canonicalID("order", orderID); err != nil {
		return nil, err
	}
	return d.engine.Get(ctx, orderID)
}

// AssignOrder gives a pending order to an available partner.
func (d *Dispatcher) AssignOrder(ctx context.Context, caller *domain.Principal, orderID, partnerID string) (o *domain.Order, err error) {
	defer d.observe("assign_order", &err)

	if err := access.AdminOnly.Authorize(caller); err != nil {
		return nil, err
	}
	if orderID, err = canonicalID("order", orderID); err != nil {
		return nil, err
	}
	if partnerID, err = canonicalID("partner", partnerID); err != nil {
		return nil, err
	}
	o, err = d.engine.Assign(ctx, orderID, partnerID)
	if err != nil {
		return nil, err
	}
	d.publish(ctx, domain.Event{
		Type:      domain.EventOrderAssigned,
		OrderID:   o.ID,
		Reference: o.Reference,
		Status:    o.Status,
		PartnerID: partnerID,
		ActorID:   caller.ID,
	})
	return o, nil
}

// ProvisionPartner creates a partner account.
func (d *Dispatcher) ProvisionPartner(ctx context.Context, caller *domain.Principal, in partners.ProvisionInput) (p *domain.Partner, err error) {
	defer d.observe("provision_partner", &err)

	if err := access.AdminOnly.Authorize(caller); err != nil {
		return nil, err
	}
	return d.registry.Provision(ctx, in)
}

// ListPartners returns every partner with order counts.
func (d *Dispatcher) ListPartners(ctx context.Context, caller *domain.Principal) (list []domain.PartnerSummary, err error) {
	defer d.observe("list_partners", &err)

	if err := access.AdminOnly.Authorize(caller); err != nil {
		return nil, err
	}
	return d.registry.List(ctx)
}

// GetPartner returns a partner with recent orders and counters.
func (d *Dispatcher) GetPartner(ctx context.Context, caller *domain.Principal, partnerID string) (res *domain.PartnerDetails, err error) {
	defer d.observe("get_partner", &err)

	if err := access.AdminOnly.Authorize(caller); err != nil {
		return nil, err
	}
	if partnerID, err = canonicalID("partner", partnerID); err != nil {
		return nil, err
	}
	return d.registry.Details(ctx, partnerID)
}

// MyOrders returns the caller's orders. An empty status means all of them.
func (d *Dispatcher) MyOrders(ctx context.Context, caller *domain.Principal, status string) (list []domain.Order, err error) {
	defer d.observe("my_orders", &err)

	partner, err := d.callerPartner(ctx, caller)
	if err != nil {
		return nil, err
	}
	var filter *domain.OrderStatus
	if status != "" {
		s := domain.OrderStatus(status)
		filter = &s
	}
	return d.engine.ListForPartner(ctx, partner.ID, filter)
}

// MyActiveOrders returns the caller's assigned and picked-up orders.
func (d *Dispatcher) MyActiveOrders(ctx context.Context, caller *domain.Principal) (list []domain.Order, err error) {
	defer d.observe("my_active_orders", &err)

	partner, err := d.callerPartner(ctx, caller)
	if err != nil {
		return nil, err
	}
	return d.engine.ListActiveForPartner(ctx, partner.ID)
}

// AdvanceOrder moves one of the caller's orders forward.
func (d *Dispatcher) AdvanceOrder(ctx context.Context, caller *domain.Principal, orderID string, status domain.OrderStatus) (o *domain.Order, err error) {
	defer d.observe("advance_order", &err)

	partner, err := d.callerPartner(ctx, caller)
	if err != nil {
		return nil, err
	}
	if orderID, err = canonicalID("order", orderID); err != nil {
		return nil, err
	}
	o, err = d.engine.AdvanceStatus(ctx, orderID, partner.ID, status)
	if err != nil {
		return nil, err
	}
	d.publish(ctx, domain.Event{
		Type:      domain.EventOrderStatusChanged,
		OrderID:   o.ID,
		Reference: o.Reference,
		Status:    o.Status,
		PartnerID: partner.ID,
		ActorID:   caller.ID,
	})
	return o, nil
}

// SetMyAvailability toggles the caller's availability.
func (d *Dispatcher) SetMyAvailability(ctx context.Context, caller *domain.Principal, a domain.Availability) (p *domain.Partner, err error) {
	defer d.observe("set_availability", &err)

	partner, err := d.callerPartner(ctx, caller)
	if err != nil {
		return nil, err
	}
	p, err = d.registry.SetAvailability(ctx, partner.ID, a)
	if err != nil {
		return nil, err
	}
	d.publish(ctx, domain.Event{
		Type:         domain.EventAvailabilityChanged,
		PartnerID:    p.ID,
		Availability: p.Availability,
		ActorID:      caller.ID,
	})
	return p, nil
}

// SetMyLocation stores the caller's latest coordinates.
func (d *Dispatcher) SetMyLocation(ctx context.Context, caller *domain.Principal, loc domain.Location) (p *domain.Partner, err error) {
	defer d.observe("set_location", &err)

	partner, err := d.callerPartner(ctx, caller)
	if err != nil {
		return nil, err
	}
	return d.registry.SetLocation(ctx, partner.ID, loc)
}

// MyProfile returns the caller's partner record with order counters.
func (d *Dispatcher) MyProfile(ctx context.Context, caller *domain.Principal) (res *Profile, err error) {
	defer d.observe("my_profile", &err)

	partner, err := d.callerPartner(ctx, caller)
	if err != nil {
		return nil, err
	}
	st, err := d.registry.Stats(ctx, partner.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{Partner: *partner, Stats: st}, nil
}

// callerPartner authorizes a partner-scoped command and loads the caller's partner record.
func (d *Dispatcher) callerPartner(ctx context.Context, caller *domain.Principal) (*domain.Partner, error) {
	if err := access.PartnerOnly.Authorize(caller); err != nil {
		return nil, err
	}
	return d.registry.FindByPrincipal(ctx, caller.ID)
}

// optionalPartner returns the partner record of a delivery partner, or nil for
// admins and for partners that were never provisioned.
func (d *Dispatcher) optionalPartner(ctx context.Context, p *domain.Principal) (*domain.Partner, error) {
	if p.Role != domain.RoleDeliveryPartner {
		return nil, nil
	}
	partner, err := d.registry.FindByPrincipal(ctx, p.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return partner, err
}

// publish runs after commit; a failed publish is logged and does not fail the command.
func (d *Dispatcher) publish(ctx context.Context, e domain.Event) {
	e.OccurredAt = d.now()
	if err := d.publisher.Publish(ctx, e); err != nil {
		d.logger.Warn("event publish failed",
			logx.String("event_type", string(e.Type)),
			logx.String("key", e.Key()),
			logx.Err(err),
		)
	}
}

func (d *Dispatcher) observe(command string, err *error) {
	if d.commands == nil {
		return
	}
	d.commands.WithLabelValues(command, Outcome(*err)).Inc()
}

// canonicalID returns id in the hyphenated lower-case form storage accepts.
func canonicalID(kind, id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.Invalidf("invalid %s id", kind)
	}
	return u.String(), nil
}

// Outcome names the error kind for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, apperr.ErrInsufficientRole):
		return "insufficient_role"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, apperr.ErrInvalid):
		return "invalid"
	default:
		return "internal"
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Event) error { return nil }
