// Package auth handles credential checks and the login/logout endpoints.
package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/users"
)

// DirectoryPort resolves accounts for credential checks.
type DirectoryPort interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	directory DirectoryPort
}

// NewService constructs a new Service.
func NewService(directory DirectoryPort) *Service {
	return &Service{directory: directory}
}

// Authenticate validates email/password credentials. Inactive accounts fail
// the same way bad credentials do.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}
