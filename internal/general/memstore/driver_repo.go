package memstore

import (
	"context"
	"fmt"
	"sort"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/ports"
)

// DriverRepo stores drivers in a Store.
type DriverRepo struct {
	store *Store
}

// NewDriverRepo constructs a DriverRepo over store.
func NewDriverRepo(store *Store) ports.DriverRepository {
	return &DriverRepo{store: store}
}

// Create inserts d with version 0.
func (repo *DriverRepo) Create(ctx context.Context, d *driver.Driver) error {
	if _, err := repo.GetByID(ctx, d.ID); err == nil {
		return fmt.Errorf("driver %s: %w", d.ID, ports.ErrConflict)
	}
	d.Version = 0

	if tx, ok := txFromContext(ctx); ok {
		tx.drivers[d.ID] = staged[driver.Driver]{value: *d, base: -1}
		return nil
	}

	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	if _, exists := repo.store.drivers[d.ID]; exists {
		return fmt.Errorf("driver %s: %w", d.ID, ports.ErrConflict)
	}
	repo.store.drivers[d.ID] = *d
	return nil
}

// GetByID returns a private copy of the driver.
func (repo *DriverRepo) GetByID(ctx context.Context, id string) (*driver.Driver, error) {
	if tx, ok := txFromContext(ctx); ok {
		if w, ok := tx.drivers[id]; ok {
			out := w.value
			return &out, nil
		}
	}

	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	d, ok := repo.store.drivers[id]
	if !ok {
		return nil, driver.ErrNotFound
	}
	return &d, nil
}

// FindByStatus returns a point-in-time snapshot of committed drivers in status,
// ordered by id. Later writes are not reflected in the returned values.
func (repo *DriverRepo) FindByStatus(_ context.Context, status driver.DriverStatus) ([]driver.Driver, error) {
	repo.store.mu.Lock()
	out := make([]driver.Driver, 0, len(repo.store.drivers))
	for _, d := range repo.store.drivers {
		if d.Status == status {
			out = append(out, d)
		}
	}
	repo.store.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save writes d when d.Version matches and bumps it.
func (repo *DriverRepo) Save(ctx context.Context, d *driver.Driver) error {
	if tx, ok := txFromContext(ctx); ok {
		base := d.Version
		if w, ok := tx.drivers[d.ID]; ok {
			if w.value.Version != d.Version {
				return ports.ErrConflict
			}
			base = w.base
		} else {
			current, err := repo.committedVersion(d.ID)
			if err != nil {
				return err
			}
			if current != d.Version {
				return ports.ErrConflict
			}
		}
		next := *d
		next.Version++
		tx.drivers[d.ID] = staged[driver.Driver]{value: next, base: base}
		d.Version = next.Version
		return nil
	}

	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	current, ok := repo.store.drivers[d.ID]
	if !ok {
		return driver.ErrNotFound
	}
	if current.Version != d.Version {
		return ports.ErrConflict
	}
	next := *d
	next.Version++
	repo.store.drivers[d.ID] = next
	d.Version = next.Version
	return nil
}

func (repo *DriverRepo) committedVersion(id string) (int, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	d, ok := repo.store.drivers[id]
	if !ok {
		return 0, driver.ErrNotFound
	}
	return d.Version, nil
}
