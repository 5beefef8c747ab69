package materials

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/lifecycle"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Material stock lot statuses.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusDepleted  Status = "DEPLETED"
	StatusArchived  Status = "ARCHIVED"
)

// Transition actions.
const (
	ActionReserve lifecycle.Action = "reserve"
	ActionRelease lifecycle.Action = "release"
	ActionConsume lifecycle.Action = "consume"
	ActionArchive lifecycle.Action = "archive"
)

// Material is one stock lot in the warehouse, tracked from intake until it is
// consumed by production or archived.
type Material struct {
	ID         int64      `json:"id"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	SupplierID *int64     `json:"supplierId,omitempty"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	Location   string     `json:"location,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Status     Status     `json:"status"`
	Note       string     `json:"note,omitempty"`
	CreatedBy  int64      `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// InStock reports whether the lot still carries quantity to act on.
func (m Material) InStock() bool {
	return m.Quantity > 0
}

// Machine is the stock lot workflow. Stock is consumed directly or via a
// reservation; reserved lots can be released back to the shelf; empty lots
// are archived rather than deleted.
var Machine = lifecycle.Machine[Status, Material]{
	Name:    "material",
	Initial: StatusAvailable,
	Transitions: map[Status]map[lifecycle.Action]lifecycle.Rule[Status, Material]{
		StatusAvailable: {
			ActionReserve: {To: StatusReserved, Capability: authz.CapMaterialsReserve, Guard: Material.InStock},
			ActionConsume: {To: StatusDepleted, Capability: authz.CapMaterialsConsume, Guard: Material.InStock},
			ActionArchive: {To: StatusArchived, Capability: authz.CapMaterialsArchive},
		},
		StatusReserved: {
			ActionRelease: {To: StatusAvailable, Capability: authz.CapMaterialsReserve},
			ActionConsume: {To: StatusDepleted, Capability: authz.CapMaterialsConsume},
		},
		StatusDepleted: {
			ActionArchive: {To: StatusArchived, Capability: authz.CapMaterialsArchive},
		},
	},
	Succeeded: map[Status]bool{StatusDepleted: true, StatusArchived: true},
}

// Columns declares the sortable list columns and their first-click order.
func Columns() []collection.ColumnSpec {
	return []collection.ColumnSpec{
		{Name: "createdAt", DefaultOrder: collection.SortDesc},
		{Name: "code", DefaultOrder: collection.SortAsc},
		{Name: "name", DefaultOrder: collection.SortAsc},
		{Name: "expiryDate", DefaultOrder: collection.SortAsc},
	}
}

// FilterKeys declares the list filter shape.
func FilterKeys() []string {
	return []string{"status", "supplierId", "location"}
}

// CreateRequest is the create payload.
type CreateRequest struct {
	Code       string     `json:"code" validate:"omitempty,max=50"`
	Name       string     `json:"name" validate:"required,max=120"`
	SupplierID *int64     `json:"supplierId,omitempty" validate:"omitempty,gt=0"`
	Quantity   float64    `json:"quantity" validate:"required,gt=0"`
	Unit       string     `json:"unit" validate:"required,max=20"`
	Location   string     `json:"location,omitempty" validate:"omitempty,max=60"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// UpdateRequest is the edit payload. Edits apply to available lots only.
type UpdateRequest struct {
	Name       *string    `json:"name,omitempty" validate:"omitempty,max=120"`
	SupplierID *int64     `json:"supplierId,omitempty" validate:"omitempty,gt=0"`
	Quantity   *float64   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Unit       *string    `json:"unit,omitempty" validate:"omitempty,max=20"`
	Location   *string    `json:"location,omitempty" validate:"omitempty,max=60"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Note       *string    `json:"note,omitempty"`
}

// Statistics aggregates the list screen's header counters.
type Statistics struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
	Expiring int            `json:"expiring"`
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("materials: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("materials: %w", shared.ErrValidation)
	// ErrNotEditable occurs when editing a lot that left the shelf.
	ErrNotEditable = fmt.Errorf("materials: only available lots can be edited: %w", shared.ErrInvalidState)
)
