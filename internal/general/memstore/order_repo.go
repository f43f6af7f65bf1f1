package memstore

import (
	"context"
	"fmt"

	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/ports"
)

// OrderRepo stores orders in a Store.
type OrderRepo struct {
	store *Store
}

// NewOrderRepo constructs an OrderRepo over store.
func NewOrderRepo(store *Store) ports.OrderRepository {
	return &OrderRepo{store: store}
}

// Create inserts o with version 0.
func (repo *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if _, err := repo.GetByID(ctx, o.ID); err == nil {
		return fmt.Errorf("order %s: %w", o.ID, ports.ErrConflict)
	}
	o.Version = 0

	if tx, ok := txFromContext(ctx); ok {
		tx.orders[o.ID] = staged[order.Order]{value: copyOrder(*o), base: -1}
		return nil
	}

	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	if _, exists := repo.store.orders[o.ID]; exists {
		return fmt.Errorf("order %s: %w", o.ID, ports.ErrConflict)
	}
	repo.store.orders[o.ID] = copyOrder(*o)
	return nil
}

// GetByID returns a private copy of the order; writes staged in the current
// transaction win over committed state.
func (repo *OrderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	if tx, ok := txFromContext(ctx); ok {
		if w, ok := tx.orders[id]; ok {
			out := copyOrder(w.value)
			return &out, nil
		}
	}

	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	o, ok := repo.store.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	out := copyOrder(o)
	return &out, nil
}

// Save writes o when o.Version matches and bumps it.
func (repo *OrderRepo) Save(ctx context.Context, o *order.Order) error {
	if tx, ok := txFromContext(ctx); ok {
		base := o.Version
		if w, ok := tx.orders[o.ID]; ok {
			if w.value.Version != o.Version {
				return ports.ErrConflict
			}
			base = w.base
		} else {
			current, err := repo.committedVersion(o.ID)
			if err != nil {
				return err
			}
			if current != o.Version {
				return ports.ErrConflict
			}
		}
		next := copyOrder(*o)
		next.Version++
		tx.orders[o.ID] = staged[order.Order]{value: next, base: base}
		o.Version = next.Version
		return nil
	}

	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	current, ok := repo.store.orders[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	if current.Version != o.Version {
		return ports.ErrConflict
	}
	next := copyOrder(*o)
	next.Version++
	repo.store.orders[o.ID] = next
	o.Version = next.Version
	return nil
}

func (repo *OrderRepo) committedVersion(id string) (int, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	o, ok := repo.store.orders[id]
	if !ok {
		return 0, order.ErrNotFound
	}
	return o.Version, nil
}

func copyOrder(o order.Order) order.Order {
	if o.DriverID != nil {
		id := *o.DriverID
		o.DriverID = &id
	}
	return o
}
