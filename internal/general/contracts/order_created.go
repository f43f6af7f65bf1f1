package contracts

import "time"

// OrderCreatedMessage is published when a PENDING order has been stored.
// Routing key: "order.created" on ExchangeOrderTopic.
type OrderCreatedMessage struct {
	OrderID     string    `json:"order_id"`
	Destination GeoPoint  `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
	Envelope
}
