package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"createdAt": "o.created_at",
	"number":    "o.number",
	"client":    "c.name",
	"dueDate":   "o.due_date",
}

const selectOrder = `SELECT o.id, o.number, o.client_id, COALESCE(c.name, ''), o.transport_id, o.total_amount, o.currency, o.due_date, o.status, o.note, o.created_by, o.created_at, o.updated_at
FROM orders o
LEFT JOIN clients c ON c.id = o.client_id`

// List returns one page of orders plus the unpaged total.
func (r *Repository) List(ctx context.Context, q collection.Query) ([]Order, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(" AND (LOWER(o.number) LIKE $%d OR LOWER(c.name) LIKE $%d)", len(args), len(args))
	}
	if status := q.Filters["status"]; status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	if client := q.Filters["clientId"]; client != "" {
		args = append(args, client)
		where += fmt.Sprintf(" AND o.client_id = $%d::bigint", len(args))
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM orders o LEFT JOIN clients c ON c.id = o.client_id " + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[q.SortBy]
	if !ok {
		orderBy = "o.created_at"
	}
	dir := "ASC"
	if q.SortOrder == collection.SortDesc {
		dir = "DESC"
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	listSQL := fmt.Sprintf("%s %s ORDER BY %s %s, o.id %s LIMIT $%d OFFSET $%d",
		selectOrder, where, orderBy, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches one order.
func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	row := r.pool.QueryRow(ctx, selectOrder+" WHERE o.id = $1", id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

// Create inserts a draft order.
func (r *Repository) Create(ctx context.Context, o Order) (Order, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO orders (number, client_id, transport_id, total_amount, currency, due_date, status, note, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		o.Number, o.ClientID, o.TransportID, o.TotalAmount, o.Currency, o.DueDate, o.Status, o.Note, o.CreatedBy,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Order{}, fmt.Errorf("orders: number %q: %w", o.Number, shared.ErrDuplicate)
		}
		return Order{}, err
	}
	return o, nil
}

// UpdateDraft rewrites the editable fields of a draft.
func (r *Repository) UpdateDraft(ctx context.Context, o Order) (Order, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE orders
SET client_id = $2, transport_id = $3, total_amount = $4, due_date = $5, note = $6, updated_at = NOW()
WHERE id = $1 AND status = $7`,
		o.ID, o.ClientID, o.TransportID, o.TotalAmount, o.DueDate, o.Note, StatusDraft)
	if err != nil {
		return Order{}, err
	}
	if tag.RowsAffected() == 0 {
		return Order{}, fmt.Errorf("orders: %w", shared.ErrStaleEntity)
	}
	return r.Get(ctx, o.ID)
}

// UpdateStatus applies a transition under repeatable read.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (Order, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current Status
		if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if current != from {
			return fmt.Errorf("orders: status is %s: %w", current, shared.ErrStaleEntity)
		}
		_, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, to)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return r.Get(ctx, id)
}

// CollectStatistics aggregates the header counters.
func (r *Repository) CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error) {
	stats := Statistics{ByStatus: make(map[Status]int)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return Statistics{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Statistics{}, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return Statistics{}, err
	}

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders
WHERE due_date IS NOT NULL AND due_date < $1 AND status NOT IN ($2, $3)`,
		asOf, StatusDelivered, StatusCancelled).Scan(&stats.Overdue)
	if err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Number, &o.ClientID, &o.ClientName, &o.TransportID, &o.TotalAmount, &o.Currency, &o.DueDate, &o.Status, &o.Note, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
