package service

import (
	"context"
	"time"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/ports"
)

// GetSystemOverview counts drivers per status and reports the size of the road network.
func (service *adminService) GetSystemOverview(ctx context.Context) (ports.SystemOverviewResult, error) {
	res := ports.SystemOverviewResult{
		Timestamp:  time.Now().UTC(),
		GraphNodes: service.graph.Len(),
	}

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		counts := map[driver.DriverStatus]*int{
			driver.DriverStatusAvailable: &res.Drivers.Available,
			driver.DriverStatusBusy:      &res.Drivers.Busy,
			driver.DriverStatusOffline:   &res.Drivers.Offline,
		}
		for status, dst := range counts {
			drivers, err := service.driverRepo.FindByStatus(txCtx, status)
			if err != nil {
				return err
			}
			*dst = len(drivers)
		}
		return nil
	})
	if err != nil {
		return ports.SystemOverviewResult{}, err
	}

	res.Drivers.Total = res.Drivers.Available + res.Drivers.Busy + res.Drivers.Offline
	return res, nil
}
