package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDriversQuery = `
CREATE TABLE IF NOT EXISTS drivers (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	status     TEXT NOT NULL CHECK (status IN ('OFFLINE', 'AVAILABLE', 'BUSY')),
	latitude   DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
	longitude  DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
	version    INTEGER NOT NULL DEFAULT 0
);
`

const createOrdersQuery = `
CREATE TABLE IF NOT EXISTS orders (
	id              TEXT PRIMARY KEY,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	order_value     DOUBLE PRECISION NOT NULL CHECK (order_value >= 0),
	destination_lat DOUBLE PRECISION NOT NULL CHECK (destination_lat BETWEEN -90 AND 90),
	destination_lon DOUBLE PRECISION NOT NULL CHECK (destination_lon BETWEEN -180 AND 180),
	status          TEXT NOT NULL CHECK (status IN ('PENDING', 'ASSIGNED', 'DELIVERED')),
	driver_id       TEXT REFERENCES drivers(id),
	version         INTEGER NOT NULL DEFAULT 0,
	CHECK (status = 'PENDING' OR driver_id IS NOT NULL)
);
`

const createIndexQuery = `
CREATE INDEX IF NOT EXISTS idx_drivers_status ON drivers(status);
`

// InitSchema creates the tables used by the repositories if they do not exist.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("init schema: pool is nil")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range []string{createDriversQuery, createOrdersQuery, createIndexQuery} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// isUniqueViolation reports whether err is a primary key or unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
