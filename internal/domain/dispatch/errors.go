package dispatch

import "errors"

var (
	// ErrNoCoverage means the order or the driver pool cannot be placed on the road network.
	ErrNoCoverage = errors.New("order location is outside the service area")
	// ErrNoAvailableDrivers means no available driver can reach the order's node.
	ErrNoAvailableDrivers = errors.New("no available driver can reach the order")
	// ErrUnavailable means every ranked candidate was taken before it could be booked.
	ErrUnavailable = errors.New("unable to assign order: all reachable drivers were taken or unavailable")
)
