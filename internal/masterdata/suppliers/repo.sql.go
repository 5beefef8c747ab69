package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists suppliers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"name":      "s.name",
	"code":      "s.code",
	"createdAt": "s.created_at",
}

const selectSupplier = `SELECT s.id, s.code, s.name, s.email, s.phone, s.address, s.created_at, s.updated_at
FROM suppliers s`

// List returns one page of suppliers plus the unpaged total.
func (r *Repository) List(ctx context.Context, q collection.Query) ([]Supplier, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(" AND (LOWER(s.name) LIKE $%d OR LOWER(s.code) LIKE $%d)", len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM suppliers s "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[q.SortBy]
	if !ok {
		orderBy = "s.name"
	}
	dir := "ASC"
	if q.SortOrder == collection.SortDesc {
		dir = "DESC"
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	listSQL := fmt.Sprintf("%s %s ORDER BY %s %s, s.id %s LIMIT $%d OFFSET $%d",
		selectSupplier, where, orderBy, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Supplier{}
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches one supplier.
func (r *Repository) Get(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, selectSupplier+" WHERE s.id = $1", id).
		Scan(&s.ID, &s.Code, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

// Create inserts a supplier.
func (r *Repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO suppliers (code, name, email, phone, address, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		s.Code, s.Name, s.Email, s.Phone, s.Address,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Supplier{}, fmt.Errorf("suppliers: code %q: %w", s.Code, shared.ErrDuplicate)
		}
		return Supplier{}, err
	}
	return s, nil
}

// Update rewrites a supplier.
func (r *Repository) Update(ctx context.Context, s Supplier) (Supplier, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers
SET code = $2, name = $3, email = $4, phone = $5, address = $6, updated_at = NOW()
WHERE id = $1`,
		s.ID, s.Code, s.Name, s.Email, s.Phone, s.Address)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Supplier{}, fmt.Errorf("suppliers: code %q: %w", s.Code, shared.ErrDuplicate)
		}
		return Supplier{}, err
	}
	if tag.RowsAffected() == 0 {
		return Supplier{}, ErrNotFound
	}
	return r.Get(ctx, s.ID)
}

// Delete removes a supplier without acquisition or stock references.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	var refs int
	err := r.pool.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM acquisitions WHERE supplier_id = $1) +
(SELECT COUNT(*) FROM materials WHERE supplier_id = $1)`, id).Scan(&refs)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
