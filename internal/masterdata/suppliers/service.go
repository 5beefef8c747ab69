package suppliers

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/collection"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	List(ctx context.Context, q collection.Query) ([]Supplier, int, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, s Supplier) (Supplier, error)
	Update(ctx context.Context, s Supplier) (Supplier, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages supplier master records.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService constructs the suppliers service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// List returns one page of suppliers.
func (s *Service) List(ctx context.Context, q collection.Query) (collection.PagedResult[Supplier], error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return collection.PagedResult[Supplier]{}, err
	}
	return collection.NewPagedResult(rows, q.Page, q.PageSize, total), nil
}

// Get fetches one supplier.
func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a supplier.
func (s *Service) Create(ctx context.Context, input UpsertRequest) (Supplier, error) {
	if err := s.validate.Struct(input); err != nil {
		return Supplier{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.repo.Create(ctx, Supplier{
		Code:    input.Code,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	})
}

// Update rewrites a supplier.
func (s *Service) Update(ctx context.Context, id int64, input UpsertRequest) (Supplier, error) {
	if err := s.validate.Struct(input); err != nil {
		return Supplier{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.repo.Update(ctx, Supplier{
		ID:      id,
		Code:    input.Code,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	})
}

// Delete removes a supplier. Suppliers referenced by acquisitions or stock
// lots stay.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
