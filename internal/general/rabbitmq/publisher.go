package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout     = 5 * time.Second
	lateConfirmTimeout = 2 * time.Second
)

var (
	ErrNotConnected = errors.New("rabbitmq: connection is not open")
	ErrNacked       = errors.New("rabbitmq: publish not acknowledged")
)

// MQPublisher publishes raw bodies through a Client.
type MQPublisher struct {
	Client *Client
}

// NewMQPublisher constructs an MQPublisher using the provided RabbitMQ client.
func NewMQPublisher(client *Client) *MQPublisher {
	return &MQPublisher{Client: client}
}

// Publish sends body to exchange with routingKey and waits for the broker confirm.
func (publisher *MQPublisher) Publish(exchange, routingKey string, body []byte) error {
	return publisher.Client.PublishMessage(exchange, routingKey, body)
}

// PublishMessage publishes a persistent, mandatory JSON message and waits for its confirm.
func (client *Client) PublishMessage(exchange, routingKey string, body []byte) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() || ch == nil || ch.IsClosed() {
		return ErrNotConnected
	}

	// confirms arrive in publish order, so only one publish may be in flight
	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := ch.PublishWithContext(ctx, exchange, routingKey, true, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish %s/%s: %w", exchange, routingKey, err)
	}

	select {
	case c := <-confirms:
		if !c.Ack {
			return ErrNacked
		}
		return nil
	case <-ctx.Done():
		// drain the late confirm so the next publish reads its own
		select {
		case c := <-confirms:
			if !c.Ack {
				return ErrNacked
			}
		case <-time.After(lateConfirmTimeout):
		}
		return ctx.Err()
	}
}
