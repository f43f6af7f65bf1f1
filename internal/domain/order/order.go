package order

import (
	"errors"
	"strings"
	"time"

	"geo-dispatch/internal/domain/geo"
)

// Order is the domain entity corresponding to the `orders` table.
type Order struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Business fields
	Value          float64
	DestinationLat float64
	DestinationLon float64

	// Core state; DriverID is nil until assigned
	Status   Status
	DriverID *string

	// Version is the optimistic concurrency token, bumped by every persisted mutation.
	Version int
}

var (
	ErrIDRequired              = errors.New("order id is required")
	ErrNotFound                = errors.New("order not found")
	ErrAlreadyAssigned         = errors.New("order is already assigned to a driver")
	ErrNegativeValue           = errors.New("order value cannot be negative")
	ErrDriverRequired          = errors.New("driver id is required")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrNotAssignedDriver       = errors.New("order is not assigned to this driver")
)

// NewOrder creates a PENDING order for the given destination.
func NewOrder(id string, value, destinationLat, destinationLon float64) (*Order, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, ErrIDRequired
	}
	if value < 0 {
		return nil, ErrNegativeValue
	}
	if destinationLat < -90 || destinationLat > 90 {
		return nil, geo.ErrInvalidLatitude
	}
	if destinationLon < -180 || destinationLon > 180 {
		return nil, geo.ErrInvalidLongitude
	}

	now := time.Now().UTC()
	return &Order{
		ID:             id,
		CreatedAt:      now,
		UpdatedAt:      now,
		Value:          value,
		DestinationLat: destinationLat,
		DestinationLon: destinationLon,
		Status:         StatusPending,
	}, nil
}

// Assigned reports whether a driver is attached to the order.
func (order *Order) Assigned() bool {
	return order.DriverID != nil
}

// AssignDriver attaches the driver and moves PENDING -> ASSIGNED.
// Status and DriverID change together so ASSIGNED always implies a driver.
func (order *Order) AssignDriver(driverID string) error {
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return ErrDriverRequired
	}
	if order.Assigned() {
		return ErrAlreadyAssigned
	}
	if !order.Status.CanTransitionTo(StatusAssigned) {
		return ErrInvalidStatusTransition
	}
	order.DriverID = &driverID
	order.Status = StatusAssigned
	order.touch()
	return nil
}

// MarkDelivered moves ASSIGNED -> DELIVERED. The driver stays attached.
func (order *Order) MarkDelivered() error {
	if !order.Status.CanTransitionTo(StatusDelivered) {
		return ErrInvalidStatusTransition
	}
	order.Status = StatusDelivered
	order.touch()
	return nil
}

func (order *Order) touch() {
	order.UpdatedAt = time.Now().UTC()
}
