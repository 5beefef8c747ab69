// Package users manages operator accounts, their role and their capability
// grants.
package users

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// User is one operator account. Capabilities hold the explicit grants; the
// Admin role bypasses them entirely.
type User struct {
	ID           int64              `json:"id"`
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	Role         string             `json:"role"`
	Capabilities []authz.Capability `json:"capabilities"`
	IsActive     bool               `json:"isActive"`
	PasswordHash string             `json:"-"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// Actor snapshots the account into the immutable form sessions carry.
func (u User) Actor() authz.Actor {
	return authz.Actor{
		UserID:       u.ID,
		Role:         u.Role,
		Capabilities: u.Capabilities,
	}
}

// Columns declares the sortable list columns and their first-click order.
func Columns() []collection.ColumnSpec {
	return []collection.ColumnSpec{
		{Name: "name", DefaultOrder: collection.SortAsc},
		{Name: "email", DefaultOrder: collection.SortAsc},
		{Name: "createdAt", DefaultOrder: collection.SortDesc},
	}
}

// FilterKeys declares the list filter shape.
func FilterKeys() []string {
	return []string{"role", "isActive"}
}

// CreateRequest is the create payload.
type CreateRequest struct {
	Email        string   `json:"email" validate:"required,email"`
	Name         string   `json:"name" validate:"required,max=120"`
	Password     string   `json:"password" validate:"required,min=8"`
	Role         string   `json:"role" validate:"required,max=40"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// UpdateRequest is the edit payload. A nil field leaves the value untouched.
type UpdateRequest struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,max=120"`
	Password     *string   `json:"password,omitempty" validate:"omitempty,min=8"`
	Role         *string   `json:"role,omitempty" validate:"omitempty,max=40"`
	Capabilities *[]string `json:"capabilities,omitempty"`
	IsActive     *bool     `json:"isActive,omitempty"`
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("users: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("users: %w", shared.ErrValidation)
	// ErrUnknownCapability rejects grants outside the closed enumeration.
	ErrUnknownCapability = fmt.Errorf("users: unknown capability: %w", shared.ErrValidation)
)
