package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/ports"
)

// OrderRepo persists orders using pgx and plain SQL.
type OrderRepo struct {
	pool *pgxpool.Pool
}

// NewOrderRepo constructs a new OrderRepo.
func NewOrderRepo(pool *pgxpool.Pool) ports.OrderRepository {
	return &OrderRepo{pool: pool}
}

// Create inserts a new order row with version 0.
func (repo *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	err := conn(ctx, repo.pool).QueryRow(ctx, `
		INSERT INTO orders (id, order_value, destination_lat, destination_lon, status, driver_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING created_at, updated_at, version
	`,
		o.ID,
		o.Value,
		o.DestinationLat,
		o.DestinationLon,
		o.Status.String(),
		o.DriverID, // NULL until assigned
	).Scan(&o.CreatedAt, &o.UpdatedAt, &o.Version)
	if isUniqueViolation(err) {
		return fmt.Errorf("order %s: %w", o.ID, ports.ErrConflict)
	}
	return err
}

// GetByID returns one order by id.
func (repo *OrderRepo) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	var (
		out        order.Order
		statusText string
	)
	err := conn(ctx, repo.pool).QueryRow(ctx, `
		SELECT
			id, created_at, updated_at,
			order_value, destination_lat, destination_lon,
			status, driver_id, version
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt,
		&out.Value, &out.DestinationLat, &out.DestinationLon,
		&statusText, &out.DriverID, &out.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(statusText)
	if err != nil {
		return nil, err
	}
	out.Status = status
	return &out, nil
}

// Save writes status and driver if the stored version still equals o.Version.
func (repo *OrderRepo) Save(ctx context.Context, o *order.Order) error {
	q := conn(ctx, repo.pool)
	err := q.QueryRow(ctx, `
		UPDATE orders
		SET status = $1,
		    driver_id = $2,
		    updated_at = now(),
		    version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version, updated_at
	`,
		o.Status.String(),
		o.DriverID,
		o.ID,
		o.Version,
	).Scan(&o.Version, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return versionMiss(ctx, q, "orders", o.ID, order.ErrNotFound)
	}
	return err
}
