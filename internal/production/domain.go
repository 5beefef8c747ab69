package production

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/lifecycle"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Production run statuses.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Transition actions.
const (
	ActionSchedule lifecycle.Action = "schedule"
	ActionStart    lifecycle.Action = "start"
	ActionComplete lifecycle.Action = "complete"
	ActionCancel   lifecycle.Action = "cancel"
)

// Run is one production batch, planned in draft and tracked through the floor
// until completion.
type Run struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	ProductName string     `json:"productName"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      Status     `json:"status"`
	Note        string     `json:"note,omitempty"`
	CreatedBy   int64      `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Planned reports whether the run carries a scheduling date.
func (r Run) Planned() bool {
	return r.ScheduledAt != nil
}

// Machine is the production run workflow. A run cannot start before it is
// scheduled, and a started run can no longer be cancelled.
var Machine = lifecycle.Machine[Status, Run]{
	Name:    "production",
	Initial: StatusDraft,
	Transitions: map[Status]map[lifecycle.Action]lifecycle.Rule[Status, Run]{
		StatusDraft: {
			ActionSchedule: {To: StatusScheduled, Capability: authz.CapProductionSchedule, Guard: Run.Planned},
			ActionCancel:   {To: StatusCancelled, Capability: authz.CapProductionCancel},
		},
		StatusScheduled: {
			ActionStart:  {To: StatusInProgress, Capability: authz.CapProductionStart},
			ActionCancel: {To: StatusCancelled, Capability: authz.CapProductionCancel},
		},
		StatusInProgress: {
			ActionComplete: {To: StatusCompleted, Capability: authz.CapProductionComplete},
		},
	},
	Succeeded: map[Status]bool{StatusCompleted: true},
}

// Columns declares the sortable list columns and their first-click order.
func Columns() []collection.ColumnSpec {
	return []collection.ColumnSpec{
		{Name: "createdAt", DefaultOrder: collection.SortDesc},
		{Name: "number", DefaultOrder: collection.SortAsc},
		{Name: "productName", DefaultOrder: collection.SortAsc},
		{Name: "dueDate", DefaultOrder: collection.SortAsc},
	}
}

// FilterKeys declares the list filter shape.
func FilterKeys() []string {
	return []string{"status"}
}

// CreateRequest is the create payload.
type CreateRequest struct {
	Number      string     `json:"number" validate:"omitempty,max=50"`
	ProductName string     `json:"productName" validate:"required,max=120"`
	Quantity    float64    `json:"quantity" validate:"required,gt=0"`
	Unit        string     `json:"unit" validate:"required,max=20"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// UpdateRequest is the edit payload. Edits apply to drafts only.
type UpdateRequest struct {
	ProductName *string    `json:"productName,omitempty" validate:"omitempty,max=120"`
	Quantity    *float64   `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Unit        *string    `json:"unit,omitempty" validate:"omitempty,max=20"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
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
	ErrNotFound = fmt.Errorf("production: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("production: %w", shared.ErrValidation)
	// ErrNotEditable occurs when editing past the draft stage.
	ErrNotEditable = fmt.Errorf("production: only drafts can be edited: %w", shared.ErrInvalidState)
)
