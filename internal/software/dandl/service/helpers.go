package service

import (
	"context"
	"time"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/ports"
)

// changeDriver loads driverID, applies mutate and saves under the version guard.
func (service *driverOpsService) changeDriver(ctx context.Context, action, driverID string, mutate func(*driver.Driver) error) (ports.DriverView, error) {
	var out ports.DriverView

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		d, err := service.drivers.GetByID(txCtx, driverID)
		if err != nil {
			return err
		}
		if err := mutate(d); err != nil {
			return err
		}
		if err := service.drivers.Save(txCtx, d); err != nil {
			return err
		}
		out = driverView(d)
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, action+"_failed", "Driver update failed", err, map[string]any{
			"driver_id": driverID,
		})
		return ports.DriverView{}, err
	}

	service.logger.Info(ctx, action, "Driver updated", map[string]any{
		"driver_id": driverID,
		"status":    out.Status,
		"latitude":  out.Latitude,
		"longitude": out.Longitude,
	})
	return out, nil
}

func driverView(d *driver.Driver) ports.DriverView {
	return ports.DriverView{
		ID:        d.ID,
		Status:    d.Status.String(),
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Version:   d.Version,
	}
}

func orderView(o *order.Order) ports.OrderView {
	return ports.OrderView{
		ID:             o.ID,
		Value:          o.Value,
		Status:         o.Status.String(),
		DestinationLat: o.DestinationLat,
		DestinationLon: o.DestinationLon,
		DriverID:       o.DriverID,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
}
