// internal/service/dispatch/resolver.go
package dispatch

import (
	"context"
	"fmt"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/domain/user"
)

// UserStore is the recipient-lookup surface the dispatcher needs.
type UserStore interface {
	ListActiveAdmins(ctx context.Context) ([]user.User, error)
	ListCoordinators(ctx context.Context, hospitalID, projectID *int64) ([]user.User, error)
	FindActiveByIDs(ctx context.Context, ids []int64) ([]user.User, error)
}

// RecipientResolver turns an alert configuration into the concrete recipient
// set for one alert.
type RecipientResolver struct {
	users UserStore
}

func NewRecipientResolver(users UserStore) *RecipientResolver {
	return &RecipientResolver{users: users}
}

// ForAlert resolves recipients for an alert: all active admins when the rule
// notifies admins, plus the coordinators of the alert's hospital or project
// when it notifies coordinators. Users matching both groups appear once.
func (r *RecipientResolver) ForAlert(ctx context.Context, cfg *alert.Configuration, a *alert.Alert) ([]user.User, error) {
	var recipients []user.User

	if cfg.NotifyAdmin {
		admins, err := r.users.ListActiveAdmins(ctx)
		if err != nil {
			return nil, fmt.Errorf("list admins: %w", err)
		}
		recipients = append(recipients, admins...)
	}

	if cfg.NotifyCoordinator && (a.HospitalID != nil || a.ProjectID != nil) {
		coordinators, err := r.users.ListCoordinators(ctx, a.HospitalID, a.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("list coordinators: %w", err)
		}
		recipients = append(recipients, coordinators...)
	}

	return dedupeByID(recipients), nil
}

// ForIDs resolves an explicit recipient list for a manual send. Unknown or
// inactive IDs are silently dropped.
func (r *RecipientResolver) ForIDs(ctx context.Context, ids []int64) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := r.users.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find recipients: %w", err)
	}
	return dedupeByID(users), nil
}

func dedupeByID(users []user.User) []user.User {
	seen := make(map[int64]bool, len(users))
	out := users[:0]
	for _, u := range users {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	return out
}
