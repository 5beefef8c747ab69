package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists user accounts in PostgreSQL. Capability grants live in
// a text array column on the users table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"name":      "u.name",
	"email":     "u.email",
	"createdAt": "u.created_at",
}

const selectUser = `SELECT u.id, u.email, u.name, u.role, u.capabilities, u.is_active, u.password_hash, u.created_at, u.updated_at
FROM users u`

// List returns one page of accounts plus the unpaged total.
func (r *Repository) List(ctx context.Context, q collection.Query) ([]User, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(" AND (LOWER(u.name) LIKE $%d OR LOWER(u.email) LIKE $%d)", len(args), len(args))
	}
	if role := q.Filters["role"]; role != "" {
		args = append(args, role)
		where += fmt.Sprintf(" AND u.role = $%d", len(args))
	}
	if active := q.Filters["isActive"]; active != "" {
		args = append(args, active)
		where += fmt.Sprintf(" AND u.is_active = $%d::boolean", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users u "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[q.SortBy]
	if !ok {
		orderBy = "u.name"
	}
	dir := "ASC"
	if q.SortOrder == collection.SortDesc {
		dir = "DESC"
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	listSQL := fmt.Sprintf("%s %s ORDER BY %s %s, u.id %s LIMIT $%d OFFSET $%d",
		selectUser, where, orderBy, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches one account.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, selectUser+" WHERE u.id = $1", id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// FindByEmail fetches one account by email, active or not.
func (r *Repository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, selectUser+" WHERE LOWER(u.email) = LOWER($1)", email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// Create inserts an account.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO users (email, name, role, capabilities, is_active, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		u.Email, u.Name, u.Role, capabilityKeys(u.Capabilities), u.IsActive, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, fmt.Errorf("users: email %q: %w", u.Email, shared.ErrDuplicate)
		}
		return User{}, err
	}
	return u, nil
}

// Update rewrites an account.
func (r *Repository) Update(ctx context.Context, u User) (User, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE users
SET name = $2, role = $3, capabilities = $4, is_active = $5, password_hash = $6, updated_at = NOW()
WHERE id = $1`,
		u.ID, u.Name, u.Role, capabilityKeys(u.Capabilities), u.IsActive, u.PasswordHash)
	if err != nil {
		return User{}, err
	}
	if tag.RowsAffected() == 0 {
		return User{}, ErrNotFound
	}
	return r.Get(ctx, u.ID)
}

// Delete removes an account.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		u    User
		caps []string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &caps, &u.IsActive, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	u.Capabilities = make([]authz.Capability, 0, len(caps))
	for _, c := range caps {
		u.Capabilities = append(u.Capabilities, authz.Capability(c))
	}
	return u, nil
}

func capabilityKeys(caps []authz.Capability) []string {
	keys := make([]string, 0, len(caps))
	for _, c := range caps {
		keys = append(keys, string(c))
	}
	return keys
}
