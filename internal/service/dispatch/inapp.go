// internal/service/dispatch/inapp.go
package dispatch

import (
	"context"

	"studylink-service/internal/domain/notification"
	"studylink-service/internal/domain/user"

	"go.uber.org/zap"
)

// NotificationStore persists in-app notification rows.
type NotificationStore interface {
	Create(ctx context.Context, n *notification.Notification) error
}

// Broadcaster pushes a freshly stored notification to the recipient's live
// websocket sessions. The websocket hub implements it; a nil Broadcaster
// means delivery stops at the database row.
type Broadcaster interface {
	NotifyUser(userID int64, n *notification.Notification)
}

// InAppWriter is the in-app channel sender: one notification row per
// recipient, plus a best-effort websocket broadcast.
type InAppWriter struct {
	notifications NotificationStore
	hub           Broadcaster
	logger        *zap.Logger
}

func NewInAppWriter(notifications NotificationStore, hub Broadcaster, logger *zap.Logger) *InAppWriter {
	return &InAppWriter{notifications: notifications, hub: hub, logger: logger}
}

func (w *InAppWriter) Channel() Channel { return ChannelInApp }

func (w *InAppWriter) Send(ctx context.Context, recipient user.User, msg Message) Outcome {
	n := &notification.Notification{
		UserID:  recipient.ID,
		Title:   msg.Subject,
		Message: msg.Body,
		Type:    msg.Type,
	}

	if err := w.notifications.Create(ctx, n); err != nil {
		w.logger.Error("create notification failed",
			zap.Int64("user_id", recipient.ID),
			zap.Error(err),
		)
		return Outcome{Channel: ChannelInApp, Status: StatusFailed, Detail: err.Error()}
	}

	if w.hub != nil {
		w.hub.NotifyUser(recipient.ID, n)
	}

	return Outcome{Channel: ChannelInApp, Status: StatusSent}
}
