package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"geo-dispatch/internal/domain/dispatch"
	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/general/contracts"
	"geo-dispatch/internal/ports"
)

// candidate is an available driver together with its route to the order.
type candidate struct {
	driverID string
	route    geo.PathResult
}

// AssignDriverToOrder books the closest reachable available driver for the order.
// Drivers are ranked by road cost from their nearest node to the order's nearest node,
// then booked in rank order; a candidate lost to a concurrent booking is skipped.
func (service *dispatchService) AssignDriverToOrder(ctx context.Context, orderID string) (ports.DispatchResult, error) {
	start := time.Now()
	ctx = service.logger.WithOrderID(ctx, orderID)

	res, err := service.assign(ctx, orderID)

	outcome := outcomeLabel(err)
	service.metrics.ObserveDispatch(outcome, time.Since(start).Seconds())

	if err != nil {
		service.logger.Info(ctx, "dispatch_failed", "Order could not be assigned", map[string]any{
			"order_id": orderID,
			"outcome":  outcome,
			"reason":   err.Error(),
		})
		if notifiable(err) {
			service.notify(ctx, contracts.DispatchEventMessage{
				OrderID: orderID,
				Outcome: contracts.OutcomeFailed,
				Reason:  outcome,
			})
		}
		return ports.DispatchResult{}, err
	}

	service.logger.Info(ctx, "dispatch_completed", fmt.Sprintf("Driver %s assigned to order %s", res.DriverID, orderID), map[string]any{
		"order_id":    orderID,
		"driver_id":   res.DriverID,
		"distance_km": res.DistanceKM,
		"eta_minutes": res.ETAMinutes,
		"path":        res.Path,
	})
	service.notify(ctx, contracts.DispatchEventMessage{
		OrderID:    orderID,
		Outcome:    contracts.OutcomeAssigned,
		DriverID:   res.DriverID,
		DistanceKM: res.DistanceKM,
		ETAMinutes: res.ETAMinutes,
	})
	return res, nil
}

func (service *dispatchService) assign(ctx context.Context, orderID string) (ports.DispatchResult, error) {
	// load the order outside any transaction; booking re-reads it
	o, err := service.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return ports.DispatchResult{}, err
	}
	if o.Assigned() {
		return ports.DispatchResult{}, order.ErrAlreadyAssigned
	}

	target, ok := service.graph.NearestNode(o.DestinationLat, o.DestinationLon)
	if !ok {
		return ports.DispatchResult{}, dispatch.ErrNoCoverage
	}

	// snapshot; may be stale by the time booking runs
	available, err := service.driverRepo.FindByStatus(ctx, driver.DriverStatusAvailable)
	if err != nil {
		return ports.DispatchResult{}, fmt.Errorf("list available drivers: %w", err)
	}
	if len(available) == 0 {
		return ports.DispatchResult{}, dispatch.ErrNoCoverage
	}

	candidates := service.rankCandidates(ctx, available, target)
	if len(candidates) == 0 {
		return ports.DispatchResult{}, dispatch.ErrNoAvailableDrivers
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return ports.DispatchResult{}, err
		}

		err := service.attemptBooking(ctx, orderID, c.driverID)
		switch {
		case err == nil:
			return ports.DispatchResult{
				OrderID:    orderID,
				DriverID:   c.driverID,
				DistanceKM: c.route.TotalDistance,
				ETAMinutes: service.etaMinutes(c.route.TotalDistance),
				Path:       c.route.IDs(),
			}, nil

		case errors.Is(err, order.ErrAlreadyAssigned):
			return ports.DispatchResult{}, err

		case errors.Is(err, ports.ErrConflict):
			service.metrics.IncBookingConflict()
			service.logger.Debug(ctx, "booking_conflict", "Driver was taken concurrently, trying next candidate", map[string]any{
				"driver_id": c.driverID,
			})

		default:
			service.logger.Error(ctx, "booking_failed", "Booking attempt failed, trying next candidate", err, map[string]any{
				"driver_id": c.driverID,
			})
		}
	}

	return ports.DispatchResult{}, dispatch.ErrUnavailable
}

// rankCandidates routes every driver to target and orders them by ascending cost.
// Drivers without a route are excluded, never fatal.
func (service *dispatchService) rankCandidates(ctx context.Context, drivers []driver.Driver, target geo.LocationNode) []candidate {
	candidates := make([]candidate, 0, len(drivers))
	for _, d := range drivers {
		from, ok := service.graph.NearestNode(d.Latitude, d.Longitude)
		if !ok {
			service.excludeCandidate(ctx, d.ID, "no_nearest_node", dispatch.ErrNoCoverage)
			continue
		}

		route, err := service.finder.FindShortestPath(service.graph, from.ID, target.ID)
		if err != nil {
			reason := "routing_error"
			switch {
			case errors.Is(err, geo.ErrPathNotFound):
				reason = "path_not_found"
			case errors.Is(err, geo.ErrInvalidNode):
				reason = "invalid_node"
			}
			service.excludeCandidate(ctx, d.ID, reason, err)
			continue
		}
		candidates = append(candidates, candidate{driverID: d.ID, route: route})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].route.TotalDistance < candidates[j].route.TotalDistance
	})
	return candidates
}

func (service *dispatchService) excludeCandidate(ctx context.Context, driverID, reason string, err error) {
	service.metrics.IncCandidateExcluded(reason)
	service.logger.Warn(ctx, "candidate_excluded", "Driver cannot reach the order", map[string]any{
		"driver_id": driverID,
		"reason":    reason,
		"error":     err.Error(),
	})
}

// attemptBooking marks the driver BUSY and the order ASSIGNED in one unit of work.
// Both records are re-read inside the transaction; the version guard on Save
// rejects the attempt with ports.ErrConflict if either changed since.
func (service *dispatchService) attemptBooking(ctx context.Context, orderID, driverID string) error {
	return service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		d, err := service.driverRepo.GetByID(txCtx, driverID)
		if err != nil {
			return err
		}
		if d.Status != driver.DriverStatusAvailable {
			return fmt.Errorf("driver %s is %s: %w", driverID, d.Status, ports.ErrConflict)
		}

		o, err := service.orderRepo.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if o.Assigned() {
			return order.ErrAlreadyAssigned
		}

		if err := d.MarkBusy(); err != nil {
			return err
		}
		if err := o.AssignDriver(d.ID); err != nil {
			return err
		}

		if err := service.driverRepo.Save(txCtx, d); err != nil {
			return err
		}
		return service.orderRepo.Save(txCtx, o)
	})
}

func (service *dispatchService) etaMinutes(distanceKM float64) float64 {
	return distanceKM / service.avgSpeedKMH * 60
}

// notify hands the outcome to the notifier; delivery failures are only logged.
func (service *dispatchService) notify(ctx context.Context, msg contracts.DispatchEventMessage) {
	if service.notifier == nil {
		return
	}
	msg.Type = "dispatch_event"
	msg.Timestamp = time.Now().UTC()
	msg.Envelope = contracts.Envelope{
		CorrelationID: correlationID(ctx),
		Producer:      "dispatch-service",
		SentAt:        msg.Timestamp,
	}
	if err := service.notifier.NotifyDispatch(ctx, msg); err != nil {
		service.logger.Error(ctx, "dispatch_notify_failed", "Failed to deliver dispatch event", err, map[string]any{
			"order_id": msg.OrderID,
			"outcome":  msg.Outcome,
		})
	}
}
