package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/ordertx"
)

// OrderRepo represents order repository.
type OrderRepo struct {
	db *pgxpool.Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{db: db}
}

const orderColumns = `id, order_ref, item_name, customer_name, latitude, longitude, address, status, assigned_to, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.Reference, &o.ItemName, &o.CustomerName,
		&o.DeliveryLocation.Latitude, &o.DeliveryLocation.Longitude, &o.DeliveryLocation.Address,
		&o.Status, &o.AssignedTo, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func queryOrders(ctx context.Context, q querier, sql string, args ...any) ([]domain.Order, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func statusStrings(list []domain.OrderStatus) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = string(s)
	}
	return out
}

// WithTx opens a transaction and executes fn within it.
func (r *OrderRepo) WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&OrderTxRepo{tx: tx})
	})
}

// Create inserts a new order. A taken reference yields apperr.ErrAlreadyExists.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO orders (id, order_ref, item_name, customer_name, latitude, longitude, address, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `,
		o.ID, o.Reference, o.ItemName, o.CustomerName,
		o.DeliveryLocation.Latitude, o.DeliveryLocation.Longitude, o.DeliveryLocation.Address,
		string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Get returns the order or nil when it does not exist.
func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if IsNotFound(err) || IsInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// List returns all orders, newest first.
func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	list, err := queryOrders(ctx, r.db, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

// ListByPartner returns the partner's orders, newest first. Empty statuses means any status.
func (r *OrderRepo) ListByPartner(ctx context.Context, partnerID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	list, err := queryOrders(ctx, r.db, `
        SELECT `+orderColumns+`
        FROM orders
        WHERE assigned_to = $1
          AND ($2::text[] IS NULL OR status = ANY($2))
        ORDER BY created_at DESC, id
    `, partnerID, statusStrings(statuses))
	if err != nil {
		return nil, fmt.Errorf("list orders of partner %s: %w", partnerID, err)
	}
	return list, nil
}

// OrderTxRepo represents order repository inside a transaction.
type OrderTxRepo struct {
	tx pgx.Tx
}

// GetOrderForUpdate locks the order row until the transaction ends.
func (r *OrderTxRepo) GetOrderForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock order %s: %w", id, err)
	}
	return o, nil
}

// GetPartnerForShare reads the partner and blocks availability changes until the transaction ends.
func (r *OrderTxRepo) GetPartnerForShare(ctx context.Context, id string) (*domain.Partner, error) {
	p, err := scanPartner(r.tx.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1 FOR SHARE`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock partner %s: %w", id, err)
	}
	return p, nil
}

// ChangeStatus applies c only while the stored status still equals c.From.
func (r *OrderTxRepo) ChangeStatus(ctx context.Context, c domain.StatusChange) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE orders
        SET status = $3,
            assigned_to = COALESCE($4, assigned_to),
            updated_at = $5
        WHERE id = $1 AND status = $2
    `, c.OrderID, string(c.From), string(c.To), c.AssignTo, c.At)
	if err != nil {
		return false, fmt.Errorf("change status of order %s: %w", c.OrderID, err)
	}
	return ct.RowsAffected() == 1, nil
}
