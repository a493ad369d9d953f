package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"vitrinet/internal/adapter/api/middleware"
	ws "vitrinet/internal/infrastructure/websocket"
	"vitrinet/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades authenticated connections and registers
// them with the manager so new-message events reach open clients.
type WebSocketHandler struct {
	manager *ws.Manager
	auth    *middleware.AuthMiddleware
}

func NewWebSocketHandler(manager *ws.Manager, auth *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		auth:    auth,
	}
}

// ServeWS handles GET /v1/ws?token=... — the token travels as a query
// parameter because browsers cannot set headers on websocket upgrades.
func (h *WebSocketHandler) ServeWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token is required")
	}

	uid, err := h.auth.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("ws upgrade failed for %s: %v", uid, err)
		return err
	}

	client := &ws.Client{
		ActorID: uid,
		Conn:    conn,
		Send:    make(chan []byte, 16),
	}
	h.manager.Register <- client

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

func (h *WebSocketHandler) writePump(client *ws.Client) {
	defer client.Conn.Close()
	for payload := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// readPump drains inbound frames; the socket is push-only, reads exist
// to notice the close handshake.
func (h *WebSocketHandler) readPump(client *ws.Client) {
	defer func() {
		h.manager.Unregister <- client
		client.Conn.Close()
	}()
	client.Conn.SetReadLimit(512)
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
