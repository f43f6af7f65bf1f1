package ports

import (
	"context"
	"time"

	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/general/contracts"
)

// ----- Road network -----

// CityGraph is the directed weighted road network of named locations.
type CityGraph interface {
	AddNode(node geo.LocationNode) error
	AddRoad(sourceID, targetID string, weight float64) error
	Neighbors(nodeID string) []geo.RoadEdge
	NodeByID(nodeID string) (geo.LocationNode, bool)
	ContainsNode(nodeID string) bool
	NearestNode(lat, lon float64) (geo.LocationNode, bool)
	Len() int
}

// PathFinder computes least-cost paths over a CityGraph.
type PathFinder interface {
	FindShortestPath(graph CityGraph, startID, endID string) (geo.PathResult, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Dispatch Service -----

// DispatchResult is returned by DispatchService.AssignDriverToOrder() on a committed booking.
type DispatchResult struct {
	OrderID    string   `json:"order_id"`
	DriverID   string   `json:"driver_id"`
	DistanceKM float64  `json:"distance_km"`
	ETAMinutes float64  `json:"estimated_time_minutes"`
	Path       []string `json:"path,omitempty"`
}

// ----- Dispatch Service Interface -----

// DispatchService exposes the boundary for order-to-driver assignment.
type DispatchService interface {
	AssignDriverToOrder(ctx context.Context, orderID string) (DispatchResult, error)
}

// DispatchNotifier delivers dispatch outcomes to external subscribers. Delivery is
// fire-and-forget: callers log a returned error and never fail the dispatch because of it.
type DispatchNotifier interface {
	NotifyDispatch(ctx context.Context, msg contracts.DispatchEventMessage) error
}

// DispatchMetrics records dispatch activity.
type DispatchMetrics interface {
	ObserveDispatch(outcome string, seconds float64)
	IncBookingConflict()
	IncCandidateExcluded(reason string)
	SetGraphNodes(n int)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Order Service -----

// CreateOrderInput is the validated input required to create an order.
type CreateOrderInput struct {
	Value          float64
	DestinationLat float64
	DestinationLon float64
}

// OrderView is the outward representation of an order; the driver is exposed by id only.
type OrderView struct {
	ID             string  `json:"id"`
	Value          float64 `json:"order_value"`
	Status         string  `json:"status"`
	DestinationLat float64 `json:"destination_lat"`
	DestinationLon float64 `json:"destination_lon"`
	DriverID       *string `json:"driver_id"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
}

// RegisterDriverInput is the validated input to register an available driver.
type RegisterDriverInput struct {
	DriverID  string
	Latitude  float64
	Longitude float64
}

// DriverView is the outward representation of a driver.
type DriverView struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Version   int     `json:"version"`
}

// ----- Order Service Interface -----

// OrderService exposes order intake and lookup.
type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (OrderView, error)
	GetOrder(ctx context.Context, orderID string) (OrderView, error)
	RegisterDriver(ctx context.Context, in RegisterDriverInput) (DriverView, error)
}

// OrderEvents announces newly created orders so that dispatch can run asynchronously.
type OrderEvents interface {
	OrderCreated(ctx context.Context, msg contracts.OrderCreatedMessage) error
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Admin Service -----

// FleetCounts is the number of drivers per status.
type FleetCounts struct {
	Available int `json:"available"`
	Busy      int `json:"busy"`
	Offline   int `json:"offline"`
	Total     int `json:"total"`
}

// SystemOverviewResult is returned by AdminService.GetSystemOverview().
type SystemOverviewResult struct {
	Timestamp  time.Time   `json:"timestamp"`
	GraphNodes int         `json:"graph_nodes"`
	Drivers    FleetCounts `json:"drivers"`
}

// ----- Admin Service Interface -----

// AdminService exposes read-only operational views.
type AdminService interface {
	GetSystemOverview(ctx context.Context) (SystemOverviewResult, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Driver Ops Service -----

// UpdateLocationInput moves a driver to a new position.
type UpdateLocationInput struct {
	DriverID  string
	Latitude  float64
	Longitude float64
}

// ----- Driver Ops Service Interface -----

// DriverOpsService changes driver availability and position, and closes deliveries.
type DriverOpsService interface {
	GoOnline(ctx context.Context, driverID string) (DriverView, error)
	GoOffline(ctx context.Context, driverID string) (DriverView, error)
	UpdateLocation(ctx context.Context, in UpdateLocationInput) (DriverView, error)
	CompleteDelivery(ctx context.Context, in CompleteDeliveryInput) (OrderView, error)
}

// CompleteDeliveryInput names the order to close. A non-empty DriverID must match
// the order's assigned driver.
type CompleteDeliveryInput struct {
	OrderID  string
	DriverID string
}
