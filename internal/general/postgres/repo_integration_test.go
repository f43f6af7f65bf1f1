//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"geo-dispatch/internal/domain/dispatch"
	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/graph"
	"geo-dispatch/internal/pathfinder"
	"geo-dispatch/internal/ports"
	"geo-dispatch/internal/software/dispatch/service"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "geo",
				"POSTGRES_PASSWORD": "geo",
				"POSTGRES_DB":       "dispatch",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://geo:geo@%s:%s/dispatch?sslmode=disable", host, port.Port())
	pool, err := Open(ctx, dsn, 16)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, InitSchema(ctx, pool))
	return pool
}

func TestRepositoriesAgainstPostgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	orders := NewOrderRepo(pool)
	drivers := NewDriverRepo(pool)
	uow := NewUnitOfWork(pool)

	d, err := driver.NewDriver("driver-1", 10.1, 74.1)
	require.NoError(t, err)
	require.NoError(t, drivers.Create(ctx, d))
	assert.ErrorIs(t, drivers.Create(ctx, d), ports.ErrConflict)

	o, err := order.NewOrder("order-1", 12.5, 81.1, 63.1)
	require.NoError(t, err)
	require.NoError(t, orders.Create(ctx, o))

	_, err = orders.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
	_, err = drivers.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, driver.ErrNotFound)

	available, err := drivers.FindByStatus(ctx, driver.DriverStatusAvailable)
	require.NoError(t, err)
	require.Len(t, available, 1)

	// stale writer loses
	first, err := drivers.GetByID(ctx, "driver-1")
	require.NoError(t, err)
	stale, err := drivers.GetByID(ctx, "driver-1")
	require.NoError(t, err)
	require.NoError(t, first.GoOffline())
	require.NoError(t, drivers.Save(ctx, first))
	assert.Equal(t, 1, first.Version)
	require.NoError(t, stale.MarkBusy())
	assert.ErrorIs(t, drivers.Save(ctx, stale), ports.ErrConflict)

	// rollback leaves nothing behind
	boom := errors.New("boom")
	err = uow.WithinTx(ctx, func(txCtx context.Context) error {
		o, err := orders.GetByID(txCtx, "order-1")
		require.NoError(t, err)
		require.NoError(t, o.AssignDriver("driver-1"))
		require.NoError(t, orders.Save(txCtx, o))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	stored, err := orders.GetByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status)
	assert.Nil(t, stored.DriverID)
	assert.Zero(t, stored.Version)
}

func TestConcurrentDispatchAgainstPostgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	orders := NewOrderRepo(pool)
	drivers := NewDriverRepo(pool)
	uow := NewUnitOfWork(pool)

	g, err := graph.New(0)
	require.NoError(t, err)
	require.NoError(t, g.AddNode(geo.LocationNode{ID: "A", Lat: 10, Lon: 74}))
	require.NoError(t, g.AddNode(geo.LocationNode{ID: "E", Lat: 81, Lon: 63}))
	require.NoError(t, g.AddRoad("A", "E", 5))

	d, err := driver.NewDriver("driver-1", 10.1, 74.1)
	require.NoError(t, err)
	require.NoError(t, drivers.Create(ctx, d))
	for _, id := range []string{"order-1", "order-2"} {
		o, err := order.NewOrder(id, 1, 81.1, 63.1)
		require.NoError(t, err)
		require.NoError(t, orders.Create(ctx, o))
	}

	log := logger.NewWithWriter("pg-test", io.Discard)
	svc := service.NewDispatchService(log, uow, orders, drivers, g, pathfinder.NewDijkstra(), nil, nil, 40)

	results := make([]error, 2)
	var eg errgroup.Group
	for i, id := range []string{"order-1", "order-2"} {
		eg.Go(func() error {
			_, results[i] = svc.AssignDriverToOrder(ctx, id)
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, dispatch.ErrUnavailable) || errors.Is(err, dispatch.ErrNoCoverage), err.Error())
	}
	assert.Equal(t, 1, succeeded)

	stored, err := drivers.GetByID(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, driver.DriverStatusBusy, stored.Status)
	assert.Equal(t, 1, stored.Version)
}
