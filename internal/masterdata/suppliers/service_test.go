package suppliers

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Supplier
	inUse  map[int64]bool
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]Supplier), inUse: make(map[int64]bool)}
}

func (r *memoryRepo) List(ctx context.Context, q collection.Query) ([]Supplier, int, error) {
	matched := []Supplier{}
	for _, s := range r.rows {
		if q.Search != "" && !strings.Contains(strings.ToLower(s.Name), q.Search) &&
			!strings.Contains(strings.ToLower(s.Code), q.Search) {
			continue
		}
		matched = append(matched, s)
	}
	return matched, len(matched), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	s, ok := r.rows[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) Create(ctx context.Context, s Supplier) (Supplier, error) {
	for _, existing := range r.rows {
		if existing.Code == s.Code {
			return Supplier{}, fmt.Errorf("suppliers: code %q: %w", s.Code, shared.ErrDuplicate)
		}
	}
	r.nextID++
	s.ID = r.nextID
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	r.rows[s.ID] = s
	return s, nil
}

func (r *memoryRepo) Update(ctx context.Context, s Supplier) (Supplier, error) {
	if _, ok := r.rows[s.ID]; !ok {
		return Supplier{}, ErrNotFound
	}
	r.rows[s.ID] = s
	return s, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	if r.inUse[id] {
		return ErrInUse
	}
	delete(r.rows, id)
	return nil
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), UpsertRequest{Name: "No code"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), UpsertRequest{Code: "SUP-1", Name: "Acme", Email: "not-an-email"})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.Create(context.Background(), UpsertRequest{Code: "SUP-1", Name: "Acme", Email: "sales@acme.test"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), UpsertRequest{Code: "SUP-1", Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), UpsertRequest{Code: "SUP-1", Name: "Other"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeleteKeepsReferencedSupplier(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), UpsertRequest{Code: "SUP-1", Name: "Acme"})
	require.NoError(t, err)
	repo.inUse[created.ID] = true

	err = svc.Delete(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
}
