package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"geo-dispatch/internal/general/contracts"
)

type exchangeDecl struct {
	name string
	kind string
}

type bindingDecl struct {
	queue      string
	exchange   string
	routingKey string
}

// topology lists every durable exchange, queue and binding the service relies on.
func topology() ([]exchangeDecl, []string, []bindingDecl) {
	exchanges := []exchangeDecl{
		{contracts.ExchangeOrderTopic, "topic"},
		{contracts.ExchangeDispatchTopic, "topic"},
	}
	queues := []string{
		contracts.QueueOrderDispatch,
		contracts.QueueDispatchEvents,
	}
	bindings := []bindingDecl{
		{contracts.QueueOrderDispatch, contracts.ExchangeOrderTopic, contracts.RouteOrderCreated},
		{contracts.QueueDispatchEvents, contracts.ExchangeDispatchTopic, contracts.RouteDispatchPrefix + "*"},
	}
	return exchanges, queues, bindings
}

func declareTopology(ch *amqp.Channel) error {
	exchanges, queues, bindings := topology()

	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}
	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}
