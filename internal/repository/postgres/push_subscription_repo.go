// internal/repository/postgres/push_subscription_repo.go
package postgres

import (
	"context"
	"fmt"

	"studylink-service/internal/domain/push"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PushSubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewPushSubscriptionRepository(db *pgxpool.Pool) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert registers an endpoint for a user. Re-subscribing an existing
// endpoint rebinds it to the current user and refreshes its keys.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, s *push.Subscription) error {
	query := `
		INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (endpoint) DO UPDATE
			SET user_id = EXCLUDED.user_id,
			    p256dh_key = EXCLUDED.p256dh_key,
			    auth_key = EXCLUDED.auth_key
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, s.UserID, s.Endpoint, s.P256dhKey, s.AuthKey).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert push subscription: %w", err)
	}

	return nil
}

// ListByUser returns all subscriptions registered for one user.
func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]push.Subscription, error) {
	query := `
		SELECT id, user_id, endpoint, p256dh_key, auth_key, created_at
		FROM push_subscriptions
		WHERE user_id = $1
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []push.Subscription{}
	for rows.Next() {
		var s push.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dhKey, &s.AuthKey, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push subscription: %w", err)
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// DeleteByEndpoint removes a subscription by its unique endpoint. A single
// atomic delete-by-key, so a row re-created by a concurrent re-subscribe is
// never clobbered by a read-then-delete race.
func (r *PushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint); err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}

	return nil
}
