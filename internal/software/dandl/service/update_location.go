package service

import (
	"context"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/ports"
)

// UpdateLocation stores the driver's new position; status is unchanged.
func (service *driverOpsService) UpdateLocation(ctx context.Context, in ports.UpdateLocationInput) (ports.DriverView, error) {
	return service.changeDriver(ctx, "driver_location_update", in.DriverID, func(d *driver.Driver) error {
		return d.MoveTo(in.Latitude, in.Longitude)
	})
}
