// internal/domain/push/entity.go
package push

import "time"

// Subscription is one browser/device push endpoint. Rows are created on
// client subscribe and removed on unsubscribe or permanent send failure
// (410/404 from the push service).
type Subscription struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Endpoint  string    `json:"endpoint" db:"endpoint"`
	P256dhKey string    `json:"p256dh_key" db:"p256dh_key"`
	AuthKey   string    `json:"auth_key" db:"auth_key"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DTOs matching the browser PushSubscription.toJSON() shape.

type SubscriptionKeys struct {
	P256dh string `json:"p256dh" binding:"required"`
	Auth   string `json:"auth" binding:"required"`
}

type RegisterRequest struct {
	Endpoint string           `json:"endpoint" binding:"required"`
	Keys     SubscriptionKeys `json:"keys" binding:"required"`
}

type UnregisterRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}
