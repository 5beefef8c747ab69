// Package transports manages the carrier fleet referenced by outbound orders.
package transports

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Transport is one carrier or vehicle record.
type Transport struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	VehicleType  string    `json:"vehicleType"`
	LicensePlate string    `json:"licensePlate,omitempty"`
	CapacityKg   float64   `json:"capacityKg"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Columns declares the sortable list columns and their first-click order.
func Columns() []collection.ColumnSpec {
	return []collection.ColumnSpec{
		{Name: "name", DefaultOrder: collection.SortAsc},
		{Name: "vehicleType", DefaultOrder: collection.SortAsc},
		{Name: "capacityKg", DefaultOrder: collection.SortDesc},
		{Name: "createdAt", DefaultOrder: collection.SortDesc},
	}
}

// UpsertRequest is the create and edit payload.
type UpsertRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	VehicleType  string  `json:"vehicleType" validate:"required,max=40"`
	LicensePlate string  `json:"licensePlate,omitempty" validate:"omitempty,max=20"`
	CapacityKg   float64 `json:"capacityKg" validate:"gte=0"`
}

var (
	ErrNotFound   = fmt.Errorf("transports: %w", shared.ErrNotFound)
	ErrValidation = fmt.Errorf("transports: %w", shared.ErrValidation)
	// ErrInUse blocks deleting a transport that orders still reference.
	ErrInUse = fmt.Errorf("transports: referenced by orders: %w", shared.ErrInvalidState)
)
