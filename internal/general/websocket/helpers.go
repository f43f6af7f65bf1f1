package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"geo-dispatch/internal/general/contracts"
	"geo-dispatch/internal/ports"
)

var _ ports.DispatchNotifier = (*Hub)(nil)

// NotifyDispatch pushes msg to every subscriber watching its order (or all orders).
// Subscribers that cannot be written to are dropped.
func (hub *Hub) NotifyDispatch(ctx context.Context, msg contracts.DispatchEventMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode dispatch event: %w", err)
	}

	hub.subscribers.Range(func(key, value any) bool {
		sub := value.(*subscriber)
		if sub.orderID != "" && sub.orderID != msg.OrderID {
			return true
		}
		if err := sub.writeMessage(websocket.TextMessage, payload); err != nil {
			hub.logger.Warn(ctx, "ws_push_failed", "Dropping dispatch subscriber after failed write", map[string]any{
				"order_id": msg.OrderID,
				"error":    err.Error(),
			})
			hub.subscribers.Delete(key)
			_ = sub.conn.Close()
		}
		return true
	})
	return nil
}

// Subscribers returns the number of connected subscribers.
func (hub *Hub) Subscribers() int {
	n := 0
	hub.subscribers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close sends a going-away frame to every subscriber and closes them.
func (hub *Hub) Close() {
	hub.subscribers.Range(func(key, value any) bool {
		sub := value.(*subscriber)
		sub.writeClose(websocket.CloseGoingAway, "server shutting down")
		_ = sub.conn.Close()
		hub.subscribers.Delete(key)
		return true
	})
}

// writeClose sends a close control frame with the given code and reason.
func (sub *subscriber) writeClose(code int, reason string) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	_ = sub.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}

// writeMessage sets a short write deadline and writes a message.
func (sub *subscriber) writeMessage(mt int, payload []byte) error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	_ = sub.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return sub.conn.WriteMessage(mt, payload)
}

func (sub *subscriber) writeJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sub.writeMessage(websocket.TextMessage, payload)
}
