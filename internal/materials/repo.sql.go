package materials

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

// Repository persists material stock lots in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"createdAt":  "m.created_at",
	"code":       "m.code",
	"name":       "m.name",
	"expiryDate": "m.expiry_date",
}

const selectMaterial = `SELECT m.id, m.code, m.name, m.supplier_id, m.quantity, m.unit, m.location, m.expiry_date, m.status, m.note, m.created_by, m.created_at, m.updated_at
FROM materials m`

// List returns one page of stock lots plus the unpaged total.
func (r *Repository) List(ctx context.Context, q collection.Query) ([]Material, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(" AND (LOWER(m.code) LIKE $%d OR LOWER(m.name) LIKE $%d)", len(args), len(args))
	}
	if status := q.Filters["status"]; status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND m.status = $%d", len(args))
	}
	if supplier := q.Filters["supplierId"]; supplier != "" {
		args = append(args, supplier)
		where += fmt.Sprintf(" AND m.supplier_id = $%d::bigint", len(args))
	}
	if location := q.Filters["location"]; location != "" {
		args = append(args, location)
		where += fmt.Sprintf(" AND m.location = $%d", len(args))
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM materials m " + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[q.SortBy]
	if !ok {
		orderBy = "m.created_at"
	}
	dir := "ASC"
	if q.SortOrder == collection.SortDesc {
		dir = "DESC"
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	listSQL := fmt.Sprintf("%s %s ORDER BY %s %s, m.id %s LIMIT $%d OFFSET $%d",
		selectMaterial, where, orderBy, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches one stock lot.
func (r *Repository) Get(ctx context.Context, id int64) (Material, error) {
	row := r.pool.QueryRow(ctx, selectMaterial+" WHERE m.id = $1", id)
	m, err := scanMaterial(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Material{}, ErrNotFound
		}
		return Material{}, err
	}
	return m, nil
}

// Create inserts an available stock lot.
func (r *Repository) Create(ctx context.Context, m Material) (Material, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO materials (code, name, supplier_id, quantity, unit, location, expiry_date, status, note, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		m.Code, m.Name, m.SupplierID, m.Quantity, m.Unit, m.Location, m.ExpiryDate, m.Status, m.Note, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Material{}, fmt.Errorf("materials: code %q: %w", m.Code, shared.ErrDuplicate)
		}
		return Material{}, err
	}
	return m, nil
}

// UpdateAvailable rewrites the editable fields of a lot still on the shelf.
func (r *Repository) UpdateAvailable(ctx context.Context, m Material) (Material, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE materials
SET name = $2, supplier_id = $3, quantity = $4, unit = $5, location = $6, expiry_date = $7, note = $8, updated_at = NOW()
WHERE id = $1 AND status = $9`,
		m.ID, m.Name, m.SupplierID, m.Quantity, m.Unit, m.Location, m.ExpiryDate, m.Note, StatusAvailable)
	if err != nil {
		return Material{}, err
	}
	if tag.RowsAffected() == 0 {
		return Material{}, fmt.Errorf("materials: %w", shared.ErrStaleEntity)
	}
	return r.Get(ctx, m.ID)
}

// UpdateStatus applies a transition under repeatable read, guarding against
// the status having moved since the client's last fetch.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (Material, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current Status
		if err := tx.QueryRow(ctx, `SELECT status FROM materials WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if current != from {
			return fmt.Errorf("materials: status is %s: %w", current, shared.ErrStaleEntity)
		}
		_, err := tx.Exec(ctx, `UPDATE materials SET status = $2, updated_at = NOW() WHERE id = $1`, id, to)
		return err
	})
	if err != nil {
		return Material{}, err
	}
	return r.Get(ctx, id)
}

// CollectStatistics aggregates the header counters. A lot counts as expiring
// when its expiry date falls within the warning window and it still sits in
// an active status.
func (r *Repository) CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error) {
	stats := Statistics{ByStatus: make(map[Status]int)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM materials GROUP BY status`)
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

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM materials
WHERE expiry_date IS NOT NULL AND expiry_date < $1 AND status NOT IN ($2, $3)`,
		asOf.AddDate(0, 0, 5), StatusDepleted, StatusArchived).Scan(&stats.Expiring)
	if err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.SupplierID, &m.Quantity, &m.Unit, &m.Location, &m.ExpiryDate, &m.Status, &m.Note, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}
