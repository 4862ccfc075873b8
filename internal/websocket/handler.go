// internal/websocket/handler.go
package websocket

import (
	"net/http"
	"strings"

	"studylink-service/internal/pkg/jwt"
	"studylink-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades authenticated HTTP requests to websocket sessions.
type Handler struct {
	hub      *Hub
	tokens   *jwt.Manager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHandler(hub *Hub, tokens *jwt.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Auth happens via token below; cross-origin dashboards are fine.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve handles GET /ws. Browsers cannot set headers on websocket dials, so
// the token also rides in the query string.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		response.Unauthorized(c, "invalid or missing token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, claims.UserID, h.logger)
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
