// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"
	"time"

	"studylink-service/internal/domain/notification"
	wstypes "studylink-service/internal/domain/websocket"

	"go.uber.org/zap"
)

type userMessage struct {
	userID int64
	msg    *wstypes.WSMessage
}

// Hub tracks live websocket sessions per user and fans notification events
// out to them. A user may hold several connections (tabs, devices).
type Hub struct {
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan userMessage

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan userMessage, 256),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case um := <-h.broadcast:
			h.deliver(um)
		}
	}
}

// NotifyUser pushes a freshly stored notification to the user's sessions.
func (h *Hub) NotifyUser(userID int64, n *notification.Notification) {
	h.enqueue(userID, &wstypes.WSMessage{
		Type: wstypes.EventNotification,
		Payload: wstypes.NotificationData{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      string(n.Type),
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		},
		Timestamp: time.Now(),
	})
}

// NotifyUnreadCount pushes the user's current unread total.
func (h *Hub) NotifyUnreadCount(userID int64, count int) {
	h.enqueue(userID, &wstypes.WSMessage{
		Type:      wstypes.EventUnreadCount,
		Payload:   map[string]int{"unread_count": count},
		Timestamp: time.Now(),
	})
}

// enqueue never blocks the caller: websocket delivery is best effort and a
// saturated hub drops the event rather than stalling a dispatch worker.
func (h *Hub) enqueue(userID int64, msg *wstypes.WSMessage) {
	select {
	case h.broadcast <- userMessage{userID: userID, msg: msg}:
	default:
		h.logger.Warn("websocket broadcast queue full, event dropped",
			zap.Int64("user_id", userID),
			zap.String("event", string(msg.Type)),
		)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info("websocket client connected",
		zap.Int64("user_id", client.userID),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.close()

			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}

			h.logger.Info("websocket client disconnected",
				zap.Int64("user_id", client.userID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

func (h *Hub) deliver(um userMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[um.userID] {
		client.send(um.msg)
	}
}

// ConnectedClients reports the number of live sessions for one user.
func (h *Hub) ConnectedClients(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.close()
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
}
