package ports

import (
	"context"
	"errors"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/order"
)

// ErrConflict is returned by Save when the stored version no longer matches the
// version carried by the entity, i.e. someone else wrote the record since it was read.
var ErrConflict = errors.New("optimistic lock conflict: record was modified concurrently")

// UnitOfWork interface is used to manage transactions across multiple repository operations.
// All writes made through repositories inside fn commit together or not at all.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository defines the methods for managing order data.
type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	// GetByID returns order.ErrNotFound when the order does not exist.
	GetByID(ctx context.Context, id string) (*order.Order, error)
	// Save persists o if o.Version still matches the stored version and bumps o.Version.
	// A mismatch returns ErrConflict and leaves o untouched.
	Save(ctx context.Context, o *order.Order) error
}

// DriverRepository defines the methods for managing driver data.
type DriverRepository interface {
	Create(ctx context.Context, d *driver.Driver) error
	// GetByID returns driver.ErrNotFound when the driver does not exist.
	GetByID(ctx context.Context, id string) (*driver.Driver, error)
	FindByStatus(ctx context.Context, status driver.DriverStatus) ([]driver.Driver, error)
	// Save persists d under the same version guard as OrderRepository.Save.
	Save(ctx context.Context, d *driver.Driver) error
}
