package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/ports"
)

// DriverRepo persists drivers using pgx and plain SQL.
type DriverRepo struct {
	pool *pgxpool.Pool
}

// NewDriverRepo constructs a new DriverRepo.
func NewDriverRepo(pool *pgxpool.Pool) ports.DriverRepository {
	return &DriverRepo{pool: pool}
}

// Create inserts a new driver row with version 0.
func (repo *DriverRepo) Create(ctx context.Context, d *driver.Driver) error {
	err := conn(ctx, repo.pool).QueryRow(ctx, `
		INSERT INTO drivers (id, status, latitude, longitude, version)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING created_at, updated_at, version
	`,
		d.ID,
		d.Status.String(),
		d.Latitude,
		d.Longitude,
	).Scan(&d.CreatedAt, &d.UpdatedAt, &d.Version)
	if isUniqueViolation(err) {
		return fmt.Errorf("driver %s: %w", d.ID, ports.ErrConflict)
	}
	return err
}

// GetByID returns one driver by id.
func (repo *DriverRepo) GetByID(ctx context.Context, driverID string) (*driver.Driver, error) {
	row := conn(ctx, repo.pool).QueryRow(ctx, `
		SELECT id, created_at, updated_at, status, latitude, longitude, version
		FROM drivers
		WHERE id = $1
	`, driverID)

	out, err := scanDriver(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, driver.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByStatus returns all drivers in status ordered by id.
func (repo *DriverRepo) FindByStatus(ctx context.Context, status driver.DriverStatus) ([]driver.Driver, error) {
	rows, err := conn(ctx, repo.pool).Query(ctx, `
		SELECT id, created_at, updated_at, status, latitude, longitude, version
		FROM drivers
		WHERE status = $1
		ORDER BY id
	`, status.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drivers := []driver.Driver{}
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return drivers, nil
}

// Save writes the mutable driver fields if the stored version still equals d.Version.
func (repo *DriverRepo) Save(ctx context.Context, d *driver.Driver) error {
	q := conn(ctx, repo.pool)
	err := q.QueryRow(ctx, `
		UPDATE drivers
		SET status = $1,
		    latitude = $2,
		    longitude = $3,
		    updated_at = now(),
		    version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version, updated_at
	`,
		d.Status.String(),
		d.Latitude,
		d.Longitude,
		d.ID,
		d.Version,
	).Scan(&d.Version, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return versionMiss(ctx, q, "drivers", d.ID, driver.ErrNotFound)
	}
	return err
}

func scanDriver(row pgx.Row) (*driver.Driver, error) {
	var (
		out        driver.Driver
		statusText string
	)
	if err := row.Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt,
		&statusText, &out.Latitude, &out.Longitude, &out.Version,
	); err != nil {
		return nil, err
	}

	status, err := driver.ParseDriverStatus(statusText)
	if err != nil {
		return nil, err
	}
	out.Status = status
	return &out, nil
}

// versionMiss tells a missing row from a stale version after an update matched nothing.
func versionMiss(ctx context.Context, q querier, table, id string, notFound error) error {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return notFound
	}
	return ports.ErrConflict
}
