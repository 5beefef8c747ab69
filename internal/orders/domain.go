package orders

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/lifecycle"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Order lifecycle statuses.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// Transition actions.
const (
	ActionSubmit  lifecycle.Action = "submit"
	ActionProcess lifecycle.Action = "process"
	ActionShip    lifecycle.Action = "ship"
	ActionDeliver lifecycle.Action = "deliver"
	ActionCancel  lifecycle.Action = "cancel"
)

// Order is a client order tracked from draft to delivery.
type Order struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	ClientID    int64      `json:"clientId"`
	ClientName  string     `json:"clientName,omitempty"`
	TransportID *int64     `json:"transportId,omitempty"`
	TotalAmount float64    `json:"totalAmount"`
	Currency    string     `json:"currency"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      Status     `json:"status"`
	Note        string     `json:"note,omitempty"`
	CreatedBy   int64      `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Machine is the order status workflow. Shipped orders can no longer be
// cancelled from the console; delivered and cancelled are terminal.
var Machine = lifecycle.Machine[Status, Order]{
	Name:    "order",
	Initial: StatusDraft,
	Transitions: map[Status]map[lifecycle.Action]lifecycle.Rule[Status, Order]{
		StatusDraft: {
			ActionSubmit: {To: StatusPending, Capability: authz.CapOrdersSubmit},
			ActionCancel: {To: StatusCancelled, Capability: authz.CapOrdersCancel},
		},
		StatusPending: {
			ActionProcess: {To: StatusProcessing, Capability: authz.CapOrdersProcess},
			ActionCancel:  {To: StatusCancelled, Capability: authz.CapOrdersCancel},
		},
		StatusProcessing: {
			ActionShip:   {To: StatusShipped, Capability: authz.CapOrdersShip},
			ActionCancel: {To: StatusCancelled, Capability: authz.CapOrdersCancel},
		},
		StatusShipped: {
			ActionDeliver: {To: StatusDelivered, Capability: authz.CapOrdersDeliver},
		},
	},
	Succeeded: map[Status]bool{StatusDelivered: true},
}

// Columns declares the sortable list columns and their first-click order.
func Columns() []collection.ColumnSpec {
	return []collection.ColumnSpec{
		{Name: "createdAt", DefaultOrder: collection.SortDesc},
		{Name: "number", DefaultOrder: collection.SortAsc},
		{Name: "client", DefaultOrder: collection.SortAsc},
		{Name: "dueDate", DefaultOrder: collection.SortAsc},
	}
}

// FilterKeys declares the list filter shape.
func FilterKeys() []string {
	return []string{"status", "clientId"}
}

// CreateRequest is the create payload.
type CreateRequest struct {
	Number      string     `json:"number" validate:"omitempty,max=50"`
	ClientID    int64      `json:"clientId" validate:"required,gt=0"`
	TransportID *int64     `json:"transportId,omitempty" validate:"omitempty,gt=0"`
	TotalAmount float64    `json:"totalAmount" validate:"gte=0"`
	Currency    string     `json:"currency" validate:"required,len=3"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// UpdateRequest is the edit payload. Edits apply to drafts only.
type UpdateRequest struct {
	ClientID    *int64     `json:"clientId,omitempty" validate:"omitempty,gt=0"`
	TransportID *int64     `json:"transportId,omitempty" validate:"omitempty,gt=0"`
	TotalAmount *float64   `json:"totalAmount,omitempty" validate:"omitempty,gte=0"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Note        *string    `json:"note,omitempty"`
}

// Statistics aggregates the list screen's header counters.
type Statistics struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
	Overdue  int            `json:"overdue"`
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("orders: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("orders: %w", shared.ErrValidation)
	// ErrNotEditable occurs when editing past the draft stage.
	ErrNotEditable = fmt.Errorf("orders: only drafts can be edited: %w", shared.ErrInvalidState)
)
