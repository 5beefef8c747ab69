// Package suppliers manages the vendor master records referenced by
// acquisitions and material stock lots.
package suppliers

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Supplier is one vendor master record.
type Supplier struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Columns declares the sortable list columns and their first-click order.
func Columns() []collection.ColumnSpec {
	return []collection.ColumnSpec{
		{Name: "name", DefaultOrder: collection.SortAsc},
		{Name: "code", DefaultOrder: collection.SortAsc},
		{Name: "createdAt", DefaultOrder: collection.SortDesc},
	}
}

// UpsertRequest is the create and edit payload.
type UpsertRequest struct {
	Code    string `json:"code" validate:"required,max=50"`
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Address string `json:"address,omitempty" validate:"omitempty,max=255"`
}

var (
	ErrNotFound   = fmt.Errorf("suppliers: %w", shared.ErrNotFound)
	ErrValidation = fmt.Errorf("suppliers: %w", shared.ErrValidation)
	// ErrInUse blocks deleting a supplier that acquisitions still reference.
	ErrInUse = fmt.Errorf("suppliers: referenced by acquisitions: %w", shared.ErrInvalidState)
)
