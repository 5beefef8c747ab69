package acquisitions

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/lifecycle"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Acquisition lifecycle statuses.
type Status string

const (
	StatusDraft              Status = "DRAFT"
	StatusReadyForProcessing Status = "READY_FOR_PROCESSING"
	StatusReceived           Status = "RECEIVED"
	StatusCancelled          Status = "CANCELLED"
)

// Material types. Processing applies only to the recyclable variant.
type MaterialType string

const (
	MaterialRaw        MaterialType = "RAW"
	MaterialRecyclable MaterialType = "RECYCLABLE"
)

// Transition actions.
const (
	ActionReceive lifecycle.Action = "receive"
	ActionPrepare lifecycle.Action = "prepare"
	ActionProcess lifecycle.Action = "process"
	ActionCancel  lifecycle.Action = "cancel"
)

// Acquisition is an inbound material purchase tracked from draft to receipt.
type Acquisition struct {
	ID           int64        `json:"id"`
	Number       string       `json:"number"`
	SupplierID   int64        `json:"supplierId"`
	SupplierName string       `json:"supplierName,omitempty"`
	MaterialType MaterialType `json:"materialType"`
	Quantity     float64      `json:"quantity"`
	Unit         string       `json:"unit"`
	UnitPrice    float64      `json:"unitPrice"`
	DueDate      *time.Time   `json:"dueDate,omitempty"`
	Status       Status       `json:"status"`
	Note         string       `json:"note,omitempty"`
	CreatedBy    int64        `json:"createdBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Recyclable reports whether the acquisition carries recyclable material.
func (a Acquisition) Recyclable() bool {
	return a.MaterialType == MaterialRecyclable
}

// Machine is the acquisition status workflow. Raw-material acquisitions go
// straight from draft to received; recyclable ones may pass through the
// processing queue first.
var Machine = lifecycle.Machine[Status, Acquisition]{
	Name:    "acquisition",
	Initial: StatusDraft,
	Transitions: map[Status]map[lifecycle.Action]lifecycle.Rule[Status, Acquisition]{
		StatusDraft: {
			ActionReceive: {To: StatusReceived, Capability: authz.CapAcquisitionsReceive},
			ActionPrepare: {To: StatusReadyForProcessing, Capability: authz.CapAcquisitionsProcess, Guard: Acquisition.Recyclable},
			ActionCancel:  {To: StatusCancelled, Capability: authz.CapAcquisitionsCancel},
		},
		StatusReadyForProcessing: {
			ActionProcess: {To: StatusReceived, Capability: authz.CapAcquisitionsProcess, Guard: Acquisition.Recyclable},
			ActionCancel:  {To: StatusCancelled, Capability: authz.CapAcquisitionsCancel},
		},
	},
	Succeeded: map[Status]bool{StatusReceived: true},
}

// Columns declares the sortable list columns and their first-click order.
func Columns() []collection.ColumnSpec {
	return []collection.ColumnSpec{
		{Name: "createdAt", DefaultOrder: collection.SortDesc},
		{Name: "number", DefaultOrder: collection.SortAsc},
		{Name: "supplier", DefaultOrder: collection.SortAsc},
		{Name: "dueDate", DefaultOrder: collection.SortAsc},
	}
}

// FilterKeys declares the list filter shape.
func FilterKeys() []string {
	return []string{"status", "materialType", "supplierId"}
}

// CreateRequest is the create payload.
type CreateRequest struct {
	Number       string     `json:"number" validate:"omitempty,max=50"`
	SupplierID   int64      `json:"supplierId" validate:"required,gt=0"`
	MaterialType string     `json:"materialType" validate:"required,oneof=RAW RECYCLABLE"`
	Quantity     float64    `json:"quantity" validate:"required,gt=0"`
	Unit         string     `json:"unit" validate:"required,max=20"`
	UnitPrice    float64    `json:"unitPrice" validate:"gte=0"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	Note         string     `json:"note,omitempty"`
}

// UpdateRequest is the edit payload. Edits apply to drafts only.
type UpdateRequest struct {
	SupplierID *int64     `json:"supplierId,omitempty" validate:"omitempty,gt=0"`
	Quantity   *float64   `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Unit       *string    `json:"unit,omitempty" validate:"omitempty,max=20"`
	UnitPrice  *float64   `json:"unitPrice,omitempty" validate:"omitempty,gte=0"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	Note       *string    `json:"note,omitempty"`
}

// Statistics aggregates the list screen's header counters. It paginates
// independently of the entity list and is cached briefly.
type Statistics struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
	Overdue  int            `json:"overdue"`
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("acquisitions: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("acquisitions: %w", shared.ErrValidation)
	// ErrNotEditable occurs when editing past the draft stage.
	ErrNotEditable = fmt.Errorf("acquisitions: only drafts can be edited: %w", shared.ErrInvalidState)
)
