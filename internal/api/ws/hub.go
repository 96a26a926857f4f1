package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
	"github.com/oshokin/alarm-assistant/internal/logger"
)

// Notification is one message pushed to subscribers.
type Notification struct {
	// Type identifies the notification kind.
	Type string `json:"type"`
	// Alarm is the alarm that fired.
	Alarm *alarm.Alarm `json:"alarm"`
}

// NotificationTypeAlarmFired marks a due alarm crossing its trigger instant.
const NotificationTypeAlarmFired = "alarm.fired"

// writeTimeout bounds a single notification write so one stuck client cannot
// stall the broadcast.
const writeTimeout = 5 * time.Second

// Hub tracks websocket subscribers and broadcasts notifications to them.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The assistant serves browsers from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Subscribe upgrades the request to a websocket and keeps the connection
// registered until the client goes away. It blocks for the connection's
// lifetime.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.add(conn)
	defer h.remove(conn)

	logger.Debugf(r.Context(), "notification subscriber connected: %s", conn.RemoteAddr())

	// Subscribers never send meaningful data; the read loop only notices
	// disconnects and control frames.
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Broadcast pushes the notification to every subscriber. Clients that fail
// the write are dropped.
func (h *Hub) Broadcast(ctx context.Context, n *Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		if err := conn.WriteJSON(n); err != nil {
			logger.Warnf(ctx, "dropping notification subscriber %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
}
