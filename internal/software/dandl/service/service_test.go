package service

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/general/memstore"
	"geo-dispatch/internal/ports"
)

type fixture struct {
	svc     ports.DriverOpsService
	drivers ports.DriverRepository
	orders  ports.OrderRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memstore.New()
	f := fixture{
		drivers: memstore.NewDriverRepo(store),
		orders:  memstore.NewOrderRepo(store),
	}
	f.svc = NewDriverOpsService(logger.NewWithWriter("dandl-test", io.Discard), memstore.NewUnitOfWork(store), f.drivers, f.orders)
	return f
}

func (f fixture) addDriver(t *testing.T, id string, mutate func(*driver.Driver) error) {
	t.Helper()
	d, err := driver.NewDriver(id, 10, 74)
	require.NoError(t, err)
	if mutate != nil {
		require.NoError(t, mutate(d))
	}
	require.NoError(t, f.drivers.Create(context.Background(), d))
}

func (f fixture) addAssignedOrder(t *testing.T, id, driverID string) {
	t.Helper()
	o, err := order.NewOrder(id, 20, 81, 63)
	require.NoError(t, err)
	require.NoError(t, o.AssignDriver(driverID))
	require.NoError(t, f.orders.Create(context.Background(), o))
}

func TestGoOfflineAndOnline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDriver(t, "d1", nil)

	view, err := f.svc.GoOffline(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "OFFLINE", view.Status)

	_, err = f.svc.GoOffline(ctx, "d1")
	assert.ErrorIs(t, err, driver.ErrInvalidStatusSwitch)

	view, err = f.svc.GoOnline(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "AVAILABLE", view.Status)

	stored, err := f.drivers.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, driver.DriverStatusAvailable, stored.Status)
}

func TestGoOnlineRejectsBusyDriver(t *testing.T) {
	f := newFixture(t)
	f.addDriver(t, "d1", (*driver.Driver).MarkBusy)

	_, err := f.svc.GoOnline(context.Background(), "d1")
	assert.ErrorIs(t, err, driver.ErrInvalidStatusSwitch)
}

func TestGoOnlineUnknownDriver(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GoOnline(context.Background(), "ghost")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestUpdateLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDriver(t, "d1", nil)

	view, err := f.svc.UpdateLocation(ctx, ports.UpdateLocationInput{DriverID: "d1", Latitude: 8.2, Longitude: 10.3})
	require.NoError(t, err)
	assert.Equal(t, 8.2, view.Latitude)
	assert.Equal(t, 10.3, view.Longitude)
	assert.Equal(t, "AVAILABLE", view.Status)

	_, err = f.svc.UpdateLocation(ctx, ports.UpdateLocationInput{DriverID: "d1", Latitude: 91, Longitude: 0})
	assert.ErrorIs(t, err, geo.ErrInvalidLatitude)

	stored, err := f.drivers.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 8.2, stored.Latitude)
}

func TestCompleteDeliveryReleasesBusyDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDriver(t, "d1", (*driver.Driver).MarkBusy)
	f.addAssignedOrder(t, "o1", "d1")

	view, err := f.svc.CompleteDelivery(ctx, ports.CompleteDeliveryInput{OrderID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", view.Status)
	require.NotNil(t, view.DriverID)
	assert.Equal(t, "d1", *view.DriverID)

	d, err := f.drivers.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, driver.DriverStatusAvailable, d.Status)

	_, err = f.svc.CompleteDelivery(ctx, ports.CompleteDeliveryInput{OrderID: "o1"})
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
}

func TestBusyDriverCannotCycleOfflineToAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDriver(t, "d1", (*driver.Driver).MarkBusy)
	f.addAssignedOrder(t, "o1", "d1")

	_, err := f.svc.GoOffline(ctx, "d1")
	assert.ErrorIs(t, err, driver.ErrInvalidStatusSwitch)
	_, err = f.svc.GoOnline(ctx, "d1")
	assert.ErrorIs(t, err, driver.ErrInvalidStatusSwitch)

	d, err := f.drivers.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, driver.DriverStatusBusy, d.Status)
	available, err := f.drivers.FindByStatus(ctx, driver.DriverStatusAvailable)
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = f.svc.CompleteDelivery(ctx, ports.CompleteDeliveryInput{OrderID: "o1"})
	require.NoError(t, err)
	_, err = f.svc.GoOffline(ctx, "d1")
	require.NoError(t, err)
}

func TestCompleteDeliveryKeepsOfflineDriverOffline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDriver(t, "d1", func(d *driver.Driver) error {
		d.Status = driver.DriverStatusOffline
		return nil
	})
	f.addAssignedOrder(t, "o1", "d1")

	_, err := f.svc.CompleteDelivery(ctx, ports.CompleteDeliveryInput{OrderID: "o1"})
	require.NoError(t, err)

	d, err := f.drivers.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, driver.DriverStatusOffline, d.Status)
}

func TestCompleteDeliveryPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := order.NewOrder("o1", 5, 1, 1)
	require.NoError(t, err)
	require.NoError(t, f.orders.Create(ctx, o))

	_, err = f.svc.CompleteDelivery(ctx, ports.CompleteDeliveryInput{OrderID: "o1"})
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)

	_, err = f.svc.CompleteDelivery(ctx, ports.CompleteDeliveryInput{OrderID: "missing"})
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestCompleteDeliveryChecksActingDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDriver(t, "d1", (*driver.Driver).MarkBusy)
	f.addAssignedOrder(t, "o1", "d1")

	_, err := f.svc.CompleteDelivery(ctx, ports.CompleteDeliveryInput{OrderID: "o1", DriverID: "d2"})
	assert.ErrorIs(t, err, order.ErrNotAssignedDriver)

	view, err := f.svc.CompleteDelivery(ctx, ports.CompleteDeliveryInput{OrderID: "o1", DriverID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", view.Status)
}
