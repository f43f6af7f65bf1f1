package driver

import (
	"errors"
	"strings"
	"time"

	"geo-dispatch/internal/domain/geo"
)

// Driver is the domain entity corresponding to the `drivers` table.
type Driver struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Operational state
	Status    DriverStatus
	Latitude  float64
	Longitude float64

	// Version is the optimistic concurrency token, bumped by every persisted mutation.
	Version int
}

var (
	ErrIDRequired          = errors.New("driver id is required")
	ErrNotFound            = errors.New("driver not found")
	ErrInvalidStatusSwitch = errors.New("invalid driver status transition")
)

// NewDriver creates an AVAILABLE driver at the given position.
func NewDriver(id string, latitude, longitude float64) (*Driver, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, ErrIDRequired
	}
	if latitude < -90 || latitude > 90 {
		return nil, geo.ErrInvalidLatitude
	}
	if longitude < -180 || longitude > 180 {
		return nil, geo.ErrInvalidLongitude
	}

	now := time.Now().UTC()
	return &Driver{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    DriverStatusAvailable,
		Latitude:  latitude,
		Longitude: longitude,
	}, nil
}

// ---- State transitions (minimal, explicit) ----

// MarkBusy transitions AVAILABLE -> BUSY. It is the only transition a booking produces.
func (driver *Driver) MarkBusy() error {
	if driver.Status != DriverStatusAvailable {
		return ErrInvalidStatusSwitch
	}
	driver.setStatus(DriverStatusBusy)
	return nil
}

// MarkAvailable transitions OFFLINE/BUSY -> AVAILABLE (e.g. after a delivery completes).
func (driver *Driver) MarkAvailable() error {
	switch driver.Status {
	case DriverStatusOffline, DriverStatusBusy:
		driver.setStatus(DriverStatusAvailable)
		return nil
	default:
		return ErrInvalidStatusSwitch
	}
}

// GoOffline transitions AVAILABLE -> OFFLINE. A BUSY driver has to finish its
// delivery first, otherwise going back online would free it while an order still holds it.
func (driver *Driver) GoOffline() error {
	if driver.Status != DriverStatusAvailable {
		return ErrInvalidStatusSwitch
	}
	driver.setStatus(DriverStatusOffline)
	return nil
}

// MoveTo updates the driver position.
func (driver *Driver) MoveTo(latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 {
		return geo.ErrInvalidLatitude
	}
	if longitude < -180 || longitude > 180 {
		return geo.ErrInvalidLongitude
	}
	driver.Latitude = latitude
	driver.Longitude = longitude
	driver.touch()
	return nil
}

// ---- internal helpers ----

func (driver *Driver) setStatus(status DriverStatus) {
	driver.Status = status
	driver.touch()
}

func (driver *Driver) touch() {
	driver.UpdatedAt = time.Now().UTC()
}
