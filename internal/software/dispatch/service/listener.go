package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"geo-dispatch/internal/general/contracts"
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/ports"
)

// OrderListener runs dispatch for newly created orders. Dispatch failures are
// terminal for the message: they are logged and never redelivered.
type OrderListener struct {
	logger   *logger.Logger
	dispatch ports.DispatchService
}

// NewOrderListener creates an OrderListener over dispatch.
func NewOrderListener(logger *logger.Logger, dispatch ports.DispatchService) *OrderListener {
	return &OrderListener{logger: logger, dispatch: dispatch}
}

// HandleOrderCreated assigns a driver to msg.OrderID.
func (listener *OrderListener) HandleOrderCreated(ctx context.Context, msg contracts.OrderCreatedMessage) {
	ctx = listener.logger.WithRequestID(ctx, msg.CorrelationID)
	ctx = listener.logger.WithOrderID(ctx, msg.OrderID)

	if _, err := listener.dispatch.AssignDriverToOrder(ctx, msg.OrderID); err != nil {
		listener.logger.Error(ctx, "async_dispatch_failed", "Asynchronous dispatch failed", err, map[string]any{
			"order_id": msg.OrderID,
			"outcome":  outcomeLabel(err),
		})
	}
}

// HandleDelivery decodes a raw order.created body and dispatches it. Only an
// undecodable body is reported as an error.
func (listener *OrderListener) HandleDelivery(ctx context.Context, body []byte) error {
	var msg contracts.OrderCreatedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		listener.logger.Error(ctx, "order_created_decode_failed", "Failed to decode order.created message", err, map[string]any{
			"size": len(body),
		})
		return fmt.Errorf("decode: %w", err)
	}
	if msg.OrderID == "" {
		return fmt.Errorf("decode: order_id is empty")
	}
	listener.HandleOrderCreated(ctx, msg)
	return nil
}

// LocalEvents delivers order.created to an OrderListener on a background goroutine.
// It replaces the broker when RabbitMQ is disabled.
type LocalEvents struct {
	listener *OrderListener
	wg       sync.WaitGroup
}

// NewLocalEvents creates LocalEvents feeding listener.
func NewLocalEvents(listener *OrderListener) *LocalEvents {
	return &LocalEvents{listener: listener}
}

// OrderCreated schedules dispatch and returns immediately.
func (events *LocalEvents) OrderCreated(ctx context.Context, msg contracts.OrderCreatedMessage) error {
	events.wg.Add(1)
	go func() {
		defer events.wg.Done()
		events.listener.HandleOrderCreated(context.WithoutCancel(ctx), msg)
	}()
	return nil
}

// Wait blocks until every scheduled dispatch has finished.
func (events *LocalEvents) Wait() {
	events.wg.Wait()
}

var _ ports.OrderEvents = (*LocalEvents)(nil)
