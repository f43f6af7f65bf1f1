package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"geo-dispatch/internal/general/contracts"
	"geo-dispatch/internal/ports"
)

// Publisher is the publish side of a broker connection.
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderEvents announces created orders on the order topic.
type OrderEvents struct {
	publisher Publisher
	producer  string
}

// NewOrderEvents returns a ports.OrderEvents publishing through publisher.
func NewOrderEvents(publisher Publisher, producer string) *OrderEvents {
	return &OrderEvents{publisher: publisher, producer: producer}
}

var _ ports.OrderEvents = (*OrderEvents)(nil)

func (events *OrderEvents) OrderCreated(ctx context.Context, msg contracts.OrderCreatedMessage) error {
	stamp(&msg.Envelope, events.producer)
	return publishJSON(events.publisher, contracts.ExchangeOrderTopic, contracts.RouteOrderCreated, msg)
}

// DispatchEvents publishes dispatch outcomes on the dispatch topic.
type DispatchEvents struct {
	publisher Publisher
	producer  string
}

// NewDispatchEvents returns a ports.DispatchNotifier publishing through publisher.
func NewDispatchEvents(publisher Publisher, producer string) *DispatchEvents {
	return &DispatchEvents{publisher: publisher, producer: producer}
}

var _ ports.DispatchNotifier = (*DispatchEvents)(nil)

func (events *DispatchEvents) NotifyDispatch(ctx context.Context, msg contracts.DispatchEventMessage) error {
	stamp(&msg.Envelope, events.producer)
	return publishJSON(events.publisher, contracts.ExchangeDispatchTopic, msg.RoutingKey(), msg)
}

func stamp(env *contracts.Envelope, producer string) {
	if env.Producer == "" {
		env.Producer = producer
	}
	if env.SentAt.IsZero() {
		env.SentAt = time.Now().UTC()
	}
}

func publishJSON(publisher Publisher, exchange, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", routingKey, err)
	}
	return publisher.Publish(exchange, routingKey, body)
}
