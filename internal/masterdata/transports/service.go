package transports

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/collection"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	List(ctx context.Context, q collection.Query) ([]Transport, int, error)
	Get(ctx context.Context, id int64) (Transport, error)
	Create(ctx context.Context, t Transport) (Transport, error)
	Update(ctx context.Context, t Transport) (Transport, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages the carrier fleet.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService constructs the transports service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// List returns one page of transports.
func (s *Service) List(ctx context.Context, q collection.Query) (collection.PagedResult[Transport], error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return collection.PagedResult[Transport]{}, err
	}
	return collection.NewPagedResult(rows, q.Page, q.PageSize, total), nil
}

// Get fetches one transport.
func (s *Service) Get(ctx context.Context, id int64) (Transport, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a transport.
func (s *Service) Create(ctx context.Context, input UpsertRequest) (Transport, error) {
	if err := s.validate.Struct(input); err != nil {
		return Transport{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.repo.Create(ctx, Transport{
		Name:         input.Name,
		VehicleType:  input.VehicleType,
		LicensePlate: input.LicensePlate,
		CapacityKg:   input.CapacityKg,
	})
}

// Update rewrites a transport.
func (s *Service) Update(ctx context.Context, id int64, input UpsertRequest) (Transport, error) {
	if err := s.validate.Struct(input); err != nil {
		return Transport{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.repo.Update(ctx, Transport{
		ID:           id,
		Name:         input.Name,
		VehicleType:  input.VehicleType,
		LicensePlate: input.LicensePlate,
		CapacityKg:   input.CapacityKg,
	})
}

// Delete removes a transport. Transports referenced by orders stay.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
