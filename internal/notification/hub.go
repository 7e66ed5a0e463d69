package notification

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Event is a structural-change notification pushed to connected clients.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Hub tracks active WebSocket connections and broadcasts asset events to
// them. Publishing is fire-and-forget: a slow or dead client is dropped,
// never waited on, and a failed broadcast does not surface to the
// operation that triggered it.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*websocket.Conn]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns:  make(map[*websocket.Conn]struct{}),
		logger: logger,
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Publish broadcasts an event to every connected client.
func (h *Hub) Publish(event string, payload any) {
	data, err := json.Marshal(Event{Type: event, Payload: payload, SentAt: time.Now()})
	if err != nil {
		h.logger.Warn("event not serializable, dropped", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			h.unregister(c)
			c.Close()
		}
	}
}

// ConnectionCount reports how many clients are currently subscribed.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
