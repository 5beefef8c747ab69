package clients

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/collection"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	List(ctx context.Context, q collection.Query) ([]Client, int, error)
	Get(ctx context.Context, id int64) (Client, error)
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) (Client, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages client master records.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService constructs the clients service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// List returns one page of clients.
func (s *Service) List(ctx context.Context, q collection.Query) (collection.PagedResult[Client], error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return collection.PagedResult[Client]{}, err
	}
	return collection.NewPagedResult(rows, q.Page, q.PageSize, total), nil
}

// Get fetches one client.
func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a client.
func (s *Service) Create(ctx context.Context, input UpsertRequest) (Client, error) {
	if err := s.validate.Struct(input); err != nil {
		return Client{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.repo.Create(ctx, Client{
		Code:    input.Code,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	})
}

// Update rewrites a client.
func (s *Service) Update(ctx context.Context, id int64, input UpsertRequest) (Client, error) {
	if err := s.validate.Struct(input); err != nil {
		return Client{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.repo.Update(ctx, Client{
		ID:      id,
		Code:    input.Code,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	})
}

// Delete removes a client. Clients referenced by orders stay.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
