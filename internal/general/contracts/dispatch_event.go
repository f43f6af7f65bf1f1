package contracts

import "time"

// Dispatch outcomes carried by DispatchEventMessage.Outcome.
const (
	OutcomeAssigned = "ASSIGNED"
	OutcomeFailed   = "FAILED"
)

// DispatchEventMessage reports the terminal outcome of one dispatch call.
// Routing key: "dispatch.assigned" or "dispatch.failed" on ExchangeDispatchTopic.
// The same payload is pushed to websocket subscribers.
type DispatchEventMessage struct {
	Type       string    `json:"type"` // "dispatch_event"
	OrderID    string    `json:"order_id"`
	Outcome    string    `json:"outcome"` // ASSIGNED|FAILED
	DriverID   string    `json:"driver_id,omitempty"`
	DistanceKM float64   `json:"distance_km,omitempty"`
	ETAMinutes float64   `json:"eta_minutes,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Envelope
}

// RoutingKey returns the dispatch topic routing key for the message outcome.
func (msg DispatchEventMessage) RoutingKey() string {
	if msg.Outcome == OutcomeAssigned {
		return RouteDispatchAssigned
	}
	return RouteDispatchFailed
}
