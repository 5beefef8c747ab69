package users

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	List(ctx context.Context, q collection.Query) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages operator accounts.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService constructs the users service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// List returns one page of accounts.
func (s *Service) List(ctx context.Context, q collection.Query) (collection.PagedResult[User], error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return collection.PagedResult[User]{}, err
	}
	return collection.NewPagedResult(rows, q.Page, q.PageSize, total), nil
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers an account with its capability grants.
func (s *Service) Create(ctx context.Context, input CreateRequest) (User, error) {
	if err := s.validate.Struct(input); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	caps, err := parseCapabilities(input.Capabilities)
	if err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, User{
		Email:        input.Email,
		Name:         input.Name,
		Role:         input.Role,
		Capabilities: caps,
		IsActive:     true,
		PasswordHash: string(hash),
	})
}

// Update edits an account. Capability changes only affect sessions opened
// after the edit; live sessions keep their login snapshot.
func (s *Service) Update(ctx context.Context, id int64, input UpdateRequest) (User, error) {
	if err := s.validate.Struct(input); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Role != nil {
		u.Role = *input.Role
	}
	if input.Capabilities != nil {
		caps, err := parseCapabilities(*input.Capabilities)
		if err != nil {
			return User{}, err
		}
		u.Capabilities = caps
	}
	if input.IsActive != nil {
		u.IsActive = *input.IsActive
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		u.PasswordHash = string(hash)
	}
	return s.repo.Update(ctx, u)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func parseCapabilities(keys []string) ([]authz.Capability, error) {
	caps := make([]authz.Capability, 0, len(keys))
	for _, key := range keys {
		c := authz.Capability(key)
		if !authz.IsKnownCapability(c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, key)
		}
		caps = append(caps, c)
	}
	return caps, nil
}
