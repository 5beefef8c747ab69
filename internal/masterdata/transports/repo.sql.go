package transports

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

// Repository persists transports in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"name":        "t.name",
	"vehicleType": "t.vehicle_type",
	"capacityKg":  "t.capacity_kg",
	"createdAt":   "t.created_at",
}

const selectTransport = `SELECT t.id, t.name, t.vehicle_type, t.license_plate, t.capacity_kg, t.created_at, t.updated_at
FROM transports t`

// List returns one page of transports plus the unpaged total.
func (r *Repository) List(ctx context.Context, q collection.Query) ([]Transport, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(" AND (LOWER(t.name) LIKE $%d OR LOWER(t.license_plate) LIKE $%d)", len(args), len(args))
	}
	if vt := q.Filters["vehicleType"]; vt != "" {
		args = append(args, vt)
		where += fmt.Sprintf(" AND t.vehicle_type = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transports t "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[q.SortBy]
	if !ok {
		orderBy = "t.name"
	}
	dir := "ASC"
	if q.SortOrder == collection.SortDesc {
		dir = "DESC"
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	listSQL := fmt.Sprintf("%s %s ORDER BY %s %s, t.id %s LIMIT $%d OFFSET $%d",
		selectTransport, where, orderBy, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Transport{}
	for rows.Next() {
		var t Transport
		if err := rows.Scan(&t.ID, &t.Name, &t.VehicleType, &t.LicensePlate, &t.CapacityKg, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches one transport.
func (r *Repository) Get(ctx context.Context, id int64) (Transport, error) {
	var t Transport
	err := r.pool.QueryRow(ctx, selectTransport+" WHERE t.id = $1", id).
		Scan(&t.ID, &t.Name, &t.VehicleType, &t.LicensePlate, &t.CapacityKg, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transport{}, ErrNotFound
		}
		return Transport{}, err
	}
	return t, nil
}

// Create inserts a transport.
func (r *Repository) Create(ctx context.Context, t Transport) (Transport, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO transports (name, vehicle_type, license_plate, capacity_kg, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		t.Name, t.VehicleType, t.LicensePlate, t.CapacityKg,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Transport{}, fmt.Errorf("transports: plate %q: %w", t.LicensePlate, shared.ErrDuplicate)
		}
		return Transport{}, err
	}
	return t, nil
}

// Update rewrites a transport.
func (r *Repository) Update(ctx context.Context, t Transport) (Transport, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE transports
SET name = $2, vehicle_type = $3, license_plate = $4, capacity_kg = $5, updated_at = NOW()
WHERE id = $1`,
		t.ID, t.Name, t.VehicleType, t.LicensePlate, t.CapacityKg)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Transport{}, fmt.Errorf("transports: plate %q: %w", t.LicensePlate, shared.ErrDuplicate)
		}
		return Transport{}, err
	}
	if tag.RowsAffected() == 0 {
		return Transport{}, ErrNotFound
	}
	return r.Get(ctx, t.ID)
}

// Delete removes a transport without order references.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	var refs int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE transport_id = $1`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM transports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
