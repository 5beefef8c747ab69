package acquisitions

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

// Repository persists acquisitions in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"createdAt": "a.created_at",
	"number":    "a.number",
	"supplier":  "s.name",
	"dueDate":   "a.due_date",
}

const selectAcquisition = `SELECT a.id, a.number, a.supplier_id, COALESCE(s.name, ''), a.material_type, a.quantity, a.unit, a.unit_price, a.due_date, a.status, a.note, a.created_by, a.created_at, a.updated_at
FROM acquisitions a
LEFT JOIN suppliers s ON s.id = a.supplier_id`

// List returns one page of acquisitions plus the unpaged total.
func (r *Repository) List(ctx context.Context, q collection.Query) ([]Acquisition, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(" AND (LOWER(a.number) LIKE $%d OR LOWER(s.name) LIKE $%d)", len(args), len(args))
	}
	if status := q.Filters["status"]; status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if mt := q.Filters["materialType"]; mt != "" {
		args = append(args, mt)
		where += fmt.Sprintf(" AND a.material_type = $%d", len(args))
	}
	if supplier := q.Filters["supplierId"]; supplier != "" {
		args = append(args, supplier)
		where += fmt.Sprintf(" AND a.supplier_id = $%d::bigint", len(args))
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM acquisitions a LEFT JOIN suppliers s ON s.id = a.supplier_id " + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[q.SortBy]
	if !ok {
		orderBy = "a.created_at"
	}
	dir := "ASC"
	if q.SortOrder == collection.SortDesc {
		dir = "DESC"
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	listSQL := fmt.Sprintf("%s %s ORDER BY %s %s, a.id %s LIMIT $%d OFFSET $%d",
		selectAcquisition, where, orderBy, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Acquisition{}
	for rows.Next() {
		a, err := scanAcquisition(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches one acquisition.
func (r *Repository) Get(ctx context.Context, id int64) (Acquisition, error) {
	row := r.pool.QueryRow(ctx, selectAcquisition+" WHERE a.id = $1", id)
	a, err := scanAcquisition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Acquisition{}, ErrNotFound
		}
		return Acquisition{}, err
	}
	return a, nil
}

// Create inserts a draft acquisition.
func (r *Repository) Create(ctx context.Context, a Acquisition) (Acquisition, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO acquisitions (number, supplier_id, material_type, quantity, unit, unit_price, due_date, status, note, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		a.Number, a.SupplierID, a.MaterialType, a.Quantity, a.Unit, a.UnitPrice, a.DueDate, a.Status, a.Note, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Acquisition{}, fmt.Errorf("acquisitions: number %q: %w", a.Number, shared.ErrDuplicate)
		}
		return Acquisition{}, err
	}
	return a, nil
}

// UpdateDraft rewrites the editable fields of a draft.
func (r *Repository) UpdateDraft(ctx context.Context, a Acquisition) (Acquisition, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE acquisitions
SET supplier_id = $2, quantity = $3, unit = $4, unit_price = $5, due_date = $6, note = $7, updated_at = NOW()
WHERE id = $1 AND status = $8`,
		a.ID, a.SupplierID, a.Quantity, a.Unit, a.UnitPrice, a.DueDate, a.Note, StatusDraft)
	if err != nil {
		return Acquisition{}, err
	}
	if tag.RowsAffected() == 0 {
		return Acquisition{}, fmt.Errorf("acquisitions: %w", shared.ErrStaleEntity)
	}
	return r.Get(ctx, a.ID)
}

// UpdateStatus applies a transition under repeatable read, guarding against
// the status having moved since the client's last fetch.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (Acquisition, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current Status
		if err := tx.QueryRow(ctx, `SELECT status FROM acquisitions WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if current != from {
			return fmt.Errorf("acquisitions: status is %s: %w", current, shared.ErrStaleEntity)
		}
		_, err := tx.Exec(ctx, `UPDATE acquisitions SET status = $2, updated_at = NOW() WHERE id = $1`, id, to)
		return err
	})
	if err != nil {
		return Acquisition{}, err
	}
	return r.Get(ctx, id)
}

// CollectStatistics aggregates the header counters.
func (r *Repository) CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error) {
	stats := Statistics{ByStatus: make(map[Status]int)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM acquisitions GROUP BY status`)
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

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM acquisitions
WHERE due_date IS NOT NULL AND due_date < $1 AND status NOT IN ($2, $3)`,
		asOf, StatusReceived, StatusCancelled).Scan(&stats.Overdue)
	if err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAcquisition(row rowScanner) (Acquisition, error) {
	var a Acquisition
	err := row.Scan(&a.ID, &a.Number, &a.SupplierID, &a.SupplierName, &a.MaterialType, &a.Quantity, &a.Unit, &a.UnitPrice, &a.DueDate, &a.Status, &a.Note, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
