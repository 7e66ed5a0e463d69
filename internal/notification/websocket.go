package notification

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"spheroseg/internal/pkg/jwt"
)

const pongWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks belong to the CORS layer; configure before exposing
	// publicly.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades clients onto the event stream.
//
// Endpoint: GET /ws/events?token=JWT_TOKEN — WebSocket clients cannot set
// an Authorization header, so the token rides the query string.
type WSHandler struct {
	hub        *Hub
	jwtService *jwt.Service
}

func NewWSHandler(hub *Hub, jwtService *jwt.Service) *WSHandler {
	return &WSHandler{hub: hub, jwtService: jwtService}
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Warn("websocket upgrade failed", "user_id", claims.UserID, "error", err)
		return
	}

	h.hub.register(conn)
	h.hub.logger.Info("event stream subscribed", "user_id", claims.UserID)

	defer func() {
		h.hub.unregister(conn)
		conn.Close()
		h.hub.logger.Info("event stream unsubscribed", "user_id", claims.UserID)
	}()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go h.pingLoop(conn)

	// Clients only listen; the read loop exists to notice disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			return
		}
	}
}
