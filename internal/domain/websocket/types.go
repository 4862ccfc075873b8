// internal/domain/websocket/types.go
package websocket

import "time"

type EventType string

const (
	EventNotification EventType = "notification.new"
	EventUnreadCount  EventType = "notification.count"
)

type WSMessage struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NotificationData is the wire shape pushed to connected clients when an
// in-app notification is written.
type NotificationData struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
