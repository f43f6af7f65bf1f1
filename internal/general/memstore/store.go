// Package memstore keeps orders and drivers in process memory behind the same
// repository and unit-of-work contracts as the Postgres adapter.
package memstore

import (
	"context"
	"sync"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/ports"
)

// Store is the shared committed state. Repositories and the unit of work built
// from the same Store see the same records.
type Store struct {
	mu      sync.Mutex
	orders  map[string]order.Order
	drivers map[string]driver.Driver
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		orders:  make(map[string]order.Order),
		drivers: make(map[string]driver.Driver),
	}
}

// staged is a pending write. base is the committed version the write was computed from;
// base < 0 marks an insert.
type staged[T any] struct {
	value T
	base  int
}

// memTx buffers writes until commit. A memTx belongs to one WithinTx call.
type memTx struct {
	orders  map[string]staged[order.Order]
	drivers map[string]staged[driver.Driver]
}

type ctxKey struct{}

var txKey = ctxKey{}

func txFromContext(ctx context.Context) (*memTx, bool) {
	tx, ok := ctx.Value(txKey).(*memTx)
	return tx, ok
}

// unitOfWork runs fn against a private write buffer and applies it atomically.
type unitOfWork struct {
	store *Store
}

// NewUnitOfWork constructs a unitOfWork bound to store.
func NewUnitOfWork(store *Store) ports.UnitOfWork {
	return &unitOfWork{store: store}
}

// WithinTx executes fn with a fresh write buffer.
//   - Nested calls join the outer buffer.
//   - If fn returns an error or panics, nothing is applied.
//   - On commit every staged write is re-checked against the committed version under
//     the store lock; one stale write aborts the whole buffer with ports.ErrConflict.
func (uow *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx := &memTx{
		orders:  make(map[string]staged[order.Order]),
		drivers: make(map[string]staged[driver.Driver]),
	}
	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	return uow.store.commit(tx)
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range tx.orders {
		cur, exists := s.orders[id]
		if !stillValid(exists, cur.Version, w.base) {
			return ports.ErrConflict
		}
	}
	for id, w := range tx.drivers {
		cur, exists := s.drivers[id]
		if !stillValid(exists, cur.Version, w.base) {
			return ports.ErrConflict
		}
	}

	for id, w := range tx.orders {
		s.orders[id] = w.value
	}
	for id, w := range tx.drivers {
		s.drivers[id] = w.value
	}
	return nil
}

func stillValid(exists bool, current, base int) bool {
	if base < 0 {
		return !exists
	}
	return exists && current == base
}
