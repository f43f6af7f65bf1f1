package service

import (
	"context"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/ports"
)

// GoOffline marks the driver OFFLINE so dispatch stops considering it.
func (service *driverOpsService) GoOffline(ctx context.Context, driverID string) (ports.DriverView, error) {
	return service.changeDriver(ctx, "driver_go_offline", driverID, (*driver.Driver).GoOffline)
}
