package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/partnertx"
)

// PartnerRepo represents partner repository.
type PartnerRepo struct {
	db *pgxpool.Pool
}

// NewPartnerRepo creates a new PartnerRepo.
func NewPartnerRepo(db *pgxpool.Pool) *PartnerRepo {
	return &PartnerRepo{db: db}
}

const partnerColumns = `id, user_id, name, contact_number, latitude, longitude, address, availability, created_at, updated_at`

var activeStatuses = statusStrings(domain.ActiveStatuses)

func scanPartner(row interface{ Scan(...any) error }, extra ...any) (*domain.Partner, error) {
	var p domain.Partner
	dest := []any{
		&p.ID, &p.PrincipalID, &p.Name, &p.ContactNumber,
		&p.Location.Latitude, &p.Location.Longitude, &p.Location.Address,
		&p.Availability, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

// WithTx opens a transaction and executes fn within it.
func (r *PartnerRepo) WithTx(ctx context.Context, fn func(tx partnertx.Repository) error) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&PartnerTxRepo{tx: tx})
	})
}

// Get returns the partner or nil when it does not exist.
func (r *PartnerRepo) Get(ctx context.Context, id string) (*domain.Partner, error) {
	p, err := scanPartner(r.db.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id))
	if err != nil {
		if IsNotFound(err) || IsInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner %s: %w", id, err)
	}
	return p, nil
}

// GetByPrincipal returns the partner owned by principalID or nil.
func (r *PartnerRepo) GetByPrincipal(ctx context.Context, principalID string) (*domain.Partner, error) {
	p, err := scanPartner(r.db.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE user_id = $1`, principalID))
	if err != nil {
		if IsNotFound(err) || IsInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner of principal %s: %w", principalID, err)
	}
	return p, nil
}

// CountActiveOrders counts assigned and picked-up orders of the partner.
func (r *PartnerRepo) CountActiveOrders(ctx context.Context, partnerID string) (int, error) {
	return countActive(ctx, r.db, partnerID)
}

func countActive(ctx context.Context, q querier, partnerID string) (int, error) {
	var n int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE assigned_to = $1 AND status = ANY($2)`,
		partnerID, activeStatuses,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active orders of partner %s: %w", partnerID, err)
	}
	return n, nil
}

// UpdateLocation stores the partner's coordinates and returns the updated row, or nil if absent.
func (r *PartnerRepo) UpdateLocation(ctx context.Context, id string, loc domain.Location, at time.Time) (*domain.Partner, error) {
	p, err := scanPartner(r.db.QueryRow(ctx, `
        UPDATE partners
        SET latitude = $2, longitude = $3, address = $4, updated_at = $5
        WHERE id = $1
        RETURNING `+partnerColumns,
		id, loc.Latitude, loc.Longitude, loc.Address, at,
	))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("update location of partner %s: %w", id, err)
	}
	return p, nil
}

// List returns every partner with total and active order counts, newest first.
func (r *PartnerRepo) List(ctx context.Context) ([]domain.PartnerSummary, error) {
	rows, err := r.db.Query(ctx, `
        SELECT p.id, p.user_id, p.name, p.contact_number, p.latitude, p.longitude, p.address,
               p.availability, p.created_at, p.updated_at,
               COUNT(o.id),
               COUNT(o.id) FILTER (WHERE o.status = ANY($1))
        FROM partners p
        LEFT JOIN orders o ON o.assigned_to = p.id
        GROUP BY p.id
        ORDER BY p.created_at DESC, p.id
    `, activeStatuses)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PartnerSummary, 0)
	for rows.Next() {
		var s domain.PartnerSummary
		p, err := scanPartner(rows, &s.TotalOrders, &s.ActiveOrders)
		if err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		s.Partner = *p
		out = append(out, s)
	}
	return out, rows.Err()
}

// Stats counts the partner's orders by lifecycle stage.
func (r *PartnerRepo) Stats(ctx context.Context, partnerID string) (domain.PartnerStats, error) {
	var st domain.PartnerStats
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'delivered'),
               COUNT(*) FILTER (WHERE status = ANY($2)),
               COUNT(*) FILTER (WHERE status = 'picked_up')
        FROM orders
        WHERE assigned_to = $1
    `, partnerID, activeStatuses).Scan(&st.Total, &st.Completed, &st.Active, &st.PickedUp)
	if err != nil {
		return domain.PartnerStats{}, fmt.Errorf("stats of partner %s: %w", partnerID, err)
	}
	return st, nil
}

// RecentOrders returns up to limit of the partner's newest orders.
func (r *PartnerRepo) RecentOrders(ctx context.Context, partnerID string, limit int) ([]domain.Order, error) {
	list, err := queryOrders(ctx, r.db, `
        SELECT `+orderColumns+`
        FROM orders
        WHERE assigned_to = $1
        ORDER BY created_at DESC, id
        LIMIT $2
    `, partnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders of partner %s: %w", partnerID, err)
	}
	return list, nil
}

// PartnerTxRepo represents partner repository inside a transaction.
type PartnerTxRepo struct {
	tx pgx.Tx
}

// GetPartnerForUpdate locks the partner row until the transaction ends.
func (r *PartnerTxRepo) GetPartnerForUpdate(ctx context.Context, id string) (*domain.Partner, error) {
	p, err := scanPartner(r.tx.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock partner %s: %w", id, err)
	}
	return p, nil
}

// CountActiveOrders counts assigned and picked-up orders of the partner.
func (r *PartnerTxRepo) CountActiveOrders(ctx context.Context, partnerID string) (int, error) {
	return countActive(ctx, r.tx, partnerID)
}

// UpdateAvailability - update partner availability.
func (r *PartnerTxRepo) UpdateAvailability(ctx context.Context, id string, a domain.Availability, at time.Time) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE partners
        SET availability = $2, updated_at = $3
        WHERE id = $1
    `, id, string(a), at)
	if err != nil {
		return fmt.Errorf("update availability of partner %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("partner %s not found", id)
	}
	return nil
}

// InsertAccount inserts the principal that will own the partner.
func (r *PartnerTxRepo) InsertAccount(ctx context.Context, a *domain.Account) error {
	return insertAccount(ctx, r.tx, a)
}

// InsertPartner - insert a new partner.
func (r *PartnerTxRepo) InsertPartner(ctx context.Context, p *domain.Partner) error {
	_, err := r.tx.Exec(ctx, `
        INSERT INTO partners (id, user_id, name, contact_number, latitude, longitude, address, availability, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `,
		p.ID, p.PrincipalID, p.Name, p.ContactNumber,
		p.Location.Latitude, p.Location.Longitude, p.Location.Address,
		string(p.Availability), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert partner: %w", err)
	}
	return nil
}
