package service

import (
	"context"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/ports"
)

// CompleteDelivery marks the order DELIVERED and releases its BUSY driver back to AVAILABLE
// in one transaction. A non-empty in.DriverID must be the assigned driver.
func (service *driverOpsService) CompleteDelivery(ctx context.Context, in ports.CompleteDeliveryInput) (ports.OrderView, error) {
	var out ports.OrderView
	orderID := in.OrderID

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		o, err := service.orders.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if in.DriverID != "" && (o.DriverID == nil || *o.DriverID != in.DriverID) {
			return order.ErrNotAssignedDriver
		}
		if err := o.MarkDelivered(); err != nil {
			return err
		}

		if err := service.orders.Save(txCtx, o); err != nil {
			return err
		}

		// only BUSY drivers are released; seeded data may pair an order with a driver in another state
		d, err := service.drivers.GetByID(txCtx, *o.DriverID)
		if err != nil {
			return err
		}
		if d.Status == driver.DriverStatusBusy {
			if err := d.MarkAvailable(); err != nil {
				return err
			}
			if err := service.drivers.Save(txCtx, d); err != nil {
				return err
			}
		}
		out = orderView(o)
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "delivery_complete_failed", "Failed to complete delivery", err, map[string]any{
			"order_id": orderID,
		})
		return ports.OrderView{}, err
	}

	service.logger.Info(ctx, "delivery_completed", "Delivery completed, driver released", map[string]any{
		"order_id":  orderID,
		"driver_id": *out.DriverID,
	})
	return out, nil
}
