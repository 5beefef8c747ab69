package clients

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

// Repository persists clients in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"name":      "c.name",
	"code":      "c.code",
	"createdAt": "c.created_at",
}

const selectClient = `SELECT c.id, c.code, c.name, c.email, c.phone, c.address, c.created_at, c.updated_at
FROM clients c`

// List returns one page of clients plus the unpaged total.
func (r *Repository) List(ctx context.Context, q collection.Query) ([]Client, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(" AND (LOWER(c.name) LIKE $%d OR LOWER(c.code) LIKE $%d)", len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM clients c "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[q.SortBy]
	if !ok {
		orderBy = "c.name"
	}
	dir := "ASC"
	if q.SortOrder == collection.SortDesc {
		dir = "DESC"
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	listSQL := fmt.Sprintf("%s %s ORDER BY %s %s, c.id %s LIMIT $%d OFFSET $%d",
		selectClient, where, orderBy, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches one client.
func (r *Repository) Get(ctx context.Context, id int64) (Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, selectClient+" WHERE c.id = $1", id).
		Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

// Create inserts a client.
func (r *Repository) Create(ctx context.Context, c Client) (Client, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO clients (code, name, email, phone, address, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		c.Code, c.Name, c.Email, c.Phone, c.Address,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Client{}, fmt.Errorf("clients: code %q: %w", c.Code, shared.ErrDuplicate)
		}
		return Client{}, err
	}
	return c, nil
}

// Update rewrites a client.
func (r *Repository) Update(ctx context.Context, c Client) (Client, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE clients
SET code = $2, name = $3, email = $4, phone = $5, address = $6, updated_at = NOW()
WHERE id = $1`,
		c.ID, c.Code, c.Name, c.Email, c.Phone, c.Address)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Client{}, fmt.Errorf("clients: code %q: %w", c.Code, shared.ErrDuplicate)
		}
		return Client{}, err
	}
	if tag.RowsAffected() == 0 {
		return Client{}, ErrNotFound
	}
	return r.Get(ctx, c.ID)
}

// Delete removes a client without order references.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	var refs int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE client_id = $1`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
