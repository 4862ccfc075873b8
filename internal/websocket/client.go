// internal/websocket/client.go
package websocket

import (
	"encoding/json"
	"time"

	wstypes "studylink-service/internal/domain/websocket"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one live websocket connection. The event stream is one way,
// server to browser; inbound frames only keep the connection alive.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	outbox  chan []byte
	userID  int64
	logger  *zap.Logger
	closed  chan struct{}
	closeMu chan struct{} // capacity 1, guards the single close
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, logger *zap.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		outbox:  make(chan []byte, 64),
		userID:  userID,
		logger:  logger,
		closed:  make(chan struct{}),
		closeMu: make(chan struct{}, 1),
	}
}

// ReadPump drains inbound frames until the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", zap.Int64("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

// WritePump flushes the outbox and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case data := <-c.outbox:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) send(msg *wstypes.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal websocket message failed", zap.Error(err))
		return
	}

	select {
	case c.outbox <- data:
	case <-c.closed:
	default:
		// Slow consumer. Dropping beats blocking the hub loop; the ping
		// cycle tears the connection down if it stays wedged.
		c.logger.Warn("websocket outbox full, event dropped", zap.Int64("user_id", c.userID))
	}
}

func (c *Client) close() {
	select {
	case c.closeMu <- struct{}{}:
		close(c.closed)
	default:
	}
}
