package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/general/contracts"
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/ports"
)

// orderService handles order intake and driver registration.
type orderService struct {
	logger     *logger.Logger
	uow        ports.UnitOfWork
	orderRepo  ports.OrderRepository
	driverRepo ports.DriverRepository
	events     ports.OrderEvents
}

// NewOrderService creates the OrderService. events may be nil, in which case new
// orders wait for a manual dispatch.
func NewOrderService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	orderRepo ports.OrderRepository,
	driverRepo ports.DriverRepository,
	events ports.OrderEvents,
) ports.OrderService {
	return &orderService{
		logger:     logger,
		uow:        uow,
		orderRepo:  orderRepo,
		driverRepo: driverRepo,
		events:     events,
	}
}

// CreateOrder stores a PENDING order and announces it. Dispatch happens asynchronously;
// a failed announcement is logged and does not fail the request.
func (service *orderService) CreateOrder(ctx context.Context, in ports.CreateOrderInput) (ports.OrderView, error) {
	o, err := order.NewOrder(uuid.NewString(), in.Value, in.DestinationLat, in.DestinationLon)
	if err != nil {
		return ports.OrderView{}, err
	}
	ctx = service.logger.WithOrderID(ctx, o.ID)

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.orderRepo.Create(txCtx, o)
	})
	if err != nil {
		service.logger.Error(ctx, "order_create_failed", "Failed to create order", err, nil)
		return ports.OrderView{}, err
	}

	service.logger.Info(ctx, "order_created", fmt.Sprintf("Order %s created", o.ID), map[string]any{
		"order_value":     o.Value,
		"destination_lat": o.DestinationLat,
		"destination_lon": o.DestinationLon,
	})

	if service.events != nil {
		msg := contracts.OrderCreatedMessage{
			OrderID:     o.ID,
			Destination: contracts.GeoPoint{Lat: o.DestinationLat, Lon: o.DestinationLon},
			CreatedAt:   o.CreatedAt,
			Envelope: contracts.Envelope{
				CorrelationID: correlationID(ctx),
				Producer:      "dispatch-service",
				SentAt:        time.Now().UTC(),
			},
		}
		if err := service.events.OrderCreated(ctx, msg); err != nil {
			service.logger.Error(ctx, "order_created_publish_failed", "Failed to announce new order", err, nil)
		}
	}

	return orderView(o), nil
}

// GetOrder returns the current state of one order.
func (service *orderService) GetOrder(ctx context.Context, orderID string) (ports.OrderView, error) {
	o, err := service.orderRepo.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return ports.OrderView{}, err
	}
	return orderView(o), nil
}

// RegisterDriver adds an AVAILABLE driver. An empty id gets a generated one.
func (service *orderService) RegisterDriver(ctx context.Context, in ports.RegisterDriverInput) (ports.DriverView, error) {
	id := strings.TrimSpace(in.DriverID)
	if id == "" {
		id = uuid.NewString()
	}
	d, err := driver.NewDriver(id, in.Latitude, in.Longitude)
	if err != nil {
		return ports.DriverView{}, err
	}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.driverRepo.Create(txCtx, d)
	})
	if err != nil {
		service.logger.Error(ctx, "driver_register_failed", "Failed to register driver", err, map[string]any{
			"driver_id": id,
		})
		return ports.DriverView{}, err
	}

	service.logger.Info(ctx, "driver_registered", fmt.Sprintf("Driver %s registered", id), map[string]any{
		"driver_id": id,
		"latitude":  d.Latitude,
		"longitude": d.Longitude,
	})
	return ports.DriverView{
		ID:        d.ID,
		Status:    d.Status.String(),
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Version:   d.Version,
	}, nil
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
