package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"geo-dispatch/internal/domain/dispatch"
	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/general/logger"
)

// outcomeLabel maps a dispatch error to a low-cardinality label for metrics and events.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "assigned"
	case errors.Is(err, order.ErrNotFound):
		return "order_not_found"
	case errors.Is(err, order.ErrAlreadyAssigned):
		return "already_assigned"
	case errors.Is(err, dispatch.ErrNoCoverage):
		return "no_coverage"
	case errors.Is(err, dispatch.ErrNoAvailableDrivers):
		return "no_available_drivers"
	case errors.Is(err, dispatch.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, geo.ErrPathNotFound), errors.Is(err, geo.ErrInvalidNode):
		return "path_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// notifiable reports whether a failed dispatch is worth announcing; lookups of
// unknown or already assigned orders change nothing and stay silent.
func notifiable(err error) bool {
	return !errors.Is(err, order.ErrNotFound) && !errors.Is(err, order.ErrAlreadyAssigned)
}

// correlationID reuses the request id from ctx or makes a new one.
func correlationID(ctx context.Context) string {
	if id := logger.RequestID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
