package production

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

// Repository persists production runs in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"createdAt":   "p.created_at",
	"number":      "p.number",
	"productName": "p.product_name",
	"dueDate":     "p.due_date",
}

const selectRun = `SELECT p.id, p.number, p.product_name, p.quantity, p.unit, p.scheduled_at, p.due_date, p.status, p.note, p.created_by, p.created_at, p.updated_at
FROM production_runs p`

// List returns one page of runs plus the unpaged total.
func (r *Repository) List(ctx context.Context, q collection.Query) ([]Run, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where += fmt.Sprintf(" AND (LOWER(p.number) LIKE $%d OR LOWER(p.product_name) LIKE $%d)", len(args), len(args))
	}
	if status := q.Filters["status"]; status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND p.status = $%d", len(args))
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM production_runs p " + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[q.SortBy]
	if !ok {
		orderBy = "p.created_at"
	}
	dir := "ASC"
	if q.SortOrder == collection.SortDesc {
		dir = "DESC"
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	listSQL := fmt.Sprintf("%s %s ORDER BY %s %s, p.id %s LIMIT $%d OFFSET $%d",
		selectRun, where, orderBy, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches one run.
func (r *Repository) Get(ctx context.Context, id int64) (Run, error) {
	row := r.pool.QueryRow(ctx, selectRun+" WHERE p.id = $1", id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	return run, nil
}

// Create inserts a draft run.
func (r *Repository) Create(ctx context.Context, run Run) (Run, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO production_runs (number, product_name, quantity, unit, scheduled_at, due_date, status, note, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		run.Number, run.ProductName, run.Quantity, run.Unit, run.ScheduledAt, run.DueDate, run.Status, run.Note, run.CreatedBy,
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Run{}, fmt.Errorf("production: number %q: %w", run.Number, shared.ErrDuplicate)
		}
		return Run{}, err
	}
	return run, nil
}

// UpdateDraft rewrites the editable fields of a draft.
func (r *Repository) UpdateDraft(ctx context.Context, run Run) (Run, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE production_runs
SET product_name = $2, quantity = $3, unit = $4, scheduled_at = $5, due_date = $6, note = $7, updated_at = NOW()
WHERE id = $1 AND status = $8`,
		run.ID, run.ProductName, run.Quantity, run.Unit, run.ScheduledAt, run.DueDate, run.Note, StatusDraft)
	if err != nil {
		return Run{}, err
	}
	if tag.RowsAffected() == 0 {
		return Run{}, fmt.Errorf("production: %w", shared.ErrStaleEntity)
	}
	return r.Get(ctx, run.ID)
}

// UpdateStatus applies a transition under repeatable read, guarding against
// the status having moved since the client's last fetch.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (Run, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current Status
		if err := tx.QueryRow(ctx, `SELECT status FROM production_runs WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if current != from {
			return fmt.Errorf("production: status is %s: %w", current, shared.ErrStaleEntity)
		}
		_, err := tx.Exec(ctx, `UPDATE production_runs SET status = $2, updated_at = NOW() WHERE id = $1`, id, to)
		return err
	})
	if err != nil {
		return Run{}, err
	}
	return r.Get(ctx, id)
}

// CollectStatistics aggregates the header counters.
func (r *Repository) CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error) {
	stats := Statistics{ByStatus: make(map[Status]int)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM production_runs GROUP BY status`)
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

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM production_runs
WHERE due_date IS NOT NULL AND due_date < $1 AND status NOT IN ($2, $3)`,
		asOf, StatusCompleted, StatusCancelled).Scan(&stats.Overdue)
	if err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.Number, &run.ProductName, &run.Quantity, &run.Unit, &run.ScheduledAt, &run.DueDate, &run.Status, &run.Note, &run.CreatedBy, &run.CreatedAt, &run.UpdatedAt)
	return run, err
}
