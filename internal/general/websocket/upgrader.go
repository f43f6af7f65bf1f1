package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"geo-dispatch/internal/general/logger"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
	readIdleTimeout  = 60 * time.Second
	pingInterval     = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// subscriber is one connected dispatch watcher. An empty orderID receives every event.
// mu serializes writes to conn for the whole life of the connection.
type subscriber struct {
	conn    *websocket.Conn
	orderID string
	mu      sync.Mutex
}

// Hub fans dispatch outcomes out to websocket subscribers.
type Hub struct {
	logger      *logger.Logger
	subscribers sync.Map // *websocket.Conn -> *subscriber
}

// NewHub creates an empty Hub.
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{logger: logger}
}

// ConnectDispatch upgrades GET /ws/dispatch. The optional order_id query
// parameter narrows the stream to a single order.
func (hub *Hub) ConnectDispatch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()

	sub := &subscriber{conn: conn, orderID: r.URL.Query().Get("order_id")}
	hub.subscribers.Store(conn, sub)
	defer hub.subscribers.Delete(conn)

	if err := sub.writeJSON(map[string]any{"type": "connected", "order_id": sub.orderID}); err != nil {
		hub.logger.Error(r.Context(), "ws_hello_failed", "Failed to send hello message", err, nil)
		return
	}
	hub.logger.Info(r.Context(), "ws_connected", "Dispatch subscriber connected", map[string]any{
		"order_id": sub.orderID,
	})

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go sub.pingLoop(done)

	// subscribers only listen; inbound frames are read to observe pongs and close
	for {
		mt, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				hub.logger.Warn(r.Context(), "ws_unexpected_close", "Dispatch subscriber closed unexpectedly", map[string]any{
					"error": err.Error(),
				})
			} else {
				hub.logger.Info(r.Context(), "ws_connection_closed", "Dispatch subscriber disconnected", nil)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))

		if mt == websocket.TextMessage && isPing(payload) {
			_ = sub.writeJSON(map[string]string{"type": "pong"})
		}
	}
}

func (sub *subscriber) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			sub.mu.Lock()
			err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			sub.mu.Unlock()
			if err != nil {
				// unblocks the reader
				_ = sub.conn.Close()
				return
			}
		}
	}
}

func isPing(payload []byte) bool {
	var msg struct {
		Type string `json:"type"`
	}
	return json.Unmarshal(payload, &msg) == nil && msg.Type == "ping"
}
