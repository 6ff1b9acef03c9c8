package orders

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
	"service-dispatch/internal/ports/ordertx"
)

// Engine owns the order lifecycle: creation, assignment and forward status changes.
type Engine struct {
	repo             orderRepository
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
	newID            func() string
}

// NewEngine creates a new Engine.
func NewEngine(repo orderRepository, timeout time.Duration, logger logx.Logger) *Engine {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Engine{
		repo:             repo,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.operationTimeout)
}

// CreateInput carries the fields of a new order.
type CreateInput struct {
	Reference        string
	ItemName         string
	CustomerName     string
	DeliveryLocation domain.Location
}

// Create stores a new pending order.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	in, err := validateCreate(in)
	if err != nil {
		return nil, err
	}

	now := e.now()
	o := &domain.Order{
		ID:               e.newID(),
		Reference:        in.Reference,
		ItemName:         in.ItemName,
		CustomerName:     in.CustomerName,
		DeliveryLocation: in.DeliveryLocation,
		Status:           domain.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := e.repo.Create(ctx, o); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return nil, apperr.Newf(apperr.ErrAlreadyExists, "order %q already exists", in.Reference)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	e.logger.Info("order created",
		logx.String("event", "order_created"),
		logx.String("order_id", o.ID),
		logx.String("reference", o.Reference),
	)
	return o, nil
}

// Assign gives a pending order to an available partner.
// Concurrent calls for the same order have exactly one winner; the rest fail
// with an invalid transition because the order is no longer pending.
func (e *Engine) Assign(ctx context.Context, orderID, partnerID string) (*domain.Order, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var result *domain.Order
	err := e.repo.WithTx(ctx, func(tx ordertx.Repository) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.New(apperr.ErrNotFound, "order not found")
		}
		if err := domain.CheckTransition(o.Status, domain.StatusAssigned); err != nil {
			return err
		}

		p, err := tx.GetPartnerForShare(ctx, partnerID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.New(apperr.ErrNotFound, "partner not found")
		}
		if !p.Assignable() {
			return apperr.New(apperr.ErrConflict, "partner is not available")
		}

		change := domain.StatusChange{
			OrderID:  o.ID,
			From:     o.Status,
			To:       domain.StatusAssigned,
			AssignTo: &p.ID,
			At:       e.now(),
		}
		if err := applyChange(ctx, tx, change); err != nil {
			return err
		}

		o.Status = change.To
		o.AssignedTo = &p.ID
		o.UpdatedAt = change.At
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("order assigned",
		logx.String("event", "order_assigned"),
		logx.String("order_id", result.ID),
		logx.String("partner_id", partnerID),
	)
	return result, nil
}

// AdvanceStatus moves an order held by partnerID one step forward.
func (e *Engine) AdvanceStatus(ctx context.Context, orderID, partnerID string, to domain.OrderStatus) (*domain.Order, error) {
	if !to.Valid() {
		return nil, apperr.Invalidf("invalid status %q", to)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var (
		result *domain.Order
		from   domain.OrderStatus
	)
	err := e.repo.WithTx(ctx, func(tx ordertx.Repository) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.New(apperr.ErrNotFound, "order not found")
		}
		if !o.IsAssignedTo(partnerID) {
			return apperr.New(apperr.ErrForbidden, "order is not assigned to you")
		}
		if err := domain.CheckTransition(o.Status, to); err != nil {
			return err
		}

		change := domain.StatusChange{OrderID: o.ID, From: o.Status, To: to, At: e.now()}
		if err := applyChange(ctx, tx, change); err != nil {
			return err
		}

		from = o.Status
		o.Status = to
		o.UpdatedAt = change.At
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("order status changed",
		logx.String("event", "order_status_changed"),
		logx.String("order_id", result.ID),
		logx.String("partner_id", partnerID),
		logx.String("from", string(from)),
		logx.String("to", string(to)),
	)
	return result, nil
}

// applyChange performs the compare-and-set write. Zero affected rows means the
// status moved underneath us.
func applyChange(ctx context.Context, tx ordertx.Repository, c domain.StatusChange) error {
	ok, err := tx.ChangeStatus(ctx, c)
	if err != nil {
		return fmt.Errorf("change order status: %w", err)
	}
	if !ok {
		return &apperr.TransitionError{From: string(c.From), To: string(c.To)}
	}
	return nil
}

// Get returns a single order.
func (e *Engine) Get(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	o, err := e.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, apperr.New(apperr.ErrNotFound, "order not found")
	}
	return o, nil
}

// List returns all orders, newest first.
func (e *Engine) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	list, err := e.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

// ListForPartner returns the partner's orders, optionally narrowed to one status.
func (e *Engine) ListForPartner(ctx context.Context, partnerID string, status *domain.OrderStatus) ([]domain.Order, error) {
	var statuses []domain.OrderStatus
	if status != nil {
		if !status.Valid() {
			return nil, apperr.Invalidf("invalid status %q", *status)
		}
		statuses = []domain.OrderStatus{*status}
	}
	return e.listByPartner(ctx, partnerID, statuses)
}

// ListActiveForPartner returns the partner's assigned and picked-up orders.
func (e *Engine) ListActiveForPartner(ctx context.Context, partnerID string) ([]domain.Order, error) {
	return e.listByPartner(ctx, partnerID, domain.ActiveStatuses)
}

func (e *Engine) listByPartner(ctx context.Context, partnerID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	list, err := e.repo.ListByPartner(ctx, partnerID, statuses)
	if err != nil {
		return nil, fmt.Errorf("list partner orders: %w", err)
	}
	return list, nil
}

func validateCreate(in CreateInput) (CreateInput, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	in.ItemName = strings.TrimSpace(in.ItemName)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.DeliveryLocation.Address = strings.TrimSpace(in.DeliveryLocation.Address)

	switch {
	case in.Reference == "":
		return in, apperr.Invalidf("orderId is required")
	case in.ItemName == "":
		return in, apperr.Invalidf("itemName is required")
	case in.CustomerName == "":
		return in, apperr.Invalidf("customerName is required")
	case !in.DeliveryLocation.Valid():
		return in, apperr.Invalidf("deliveryLocation must have latitude in [-90, 90] and longitude in [-180, 180]")
	}
	return in, nil
}
