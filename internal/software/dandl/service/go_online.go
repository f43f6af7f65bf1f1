package service

import (
	"context"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/ports"
)

// GoOnline moves an OFFLINE driver back to AVAILABLE. A BUSY driver must complete its delivery instead.
func (service *driverOpsService) GoOnline(ctx context.Context, driverID string) (ports.DriverView, error) {
	return service.changeDriver(ctx, "driver_go_online", driverID, func(d *driver.Driver) error {
		if d.Status != driver.DriverStatusOffline {
			return driver.ErrInvalidStatusSwitch
		}
		return d.MarkAvailable()
	})
}
