// internal/service/communication/service.go
package communication

import (
	"context"

	"studylink-service/internal/domain/communication"
)

type Store interface {
	ListForUser(ctx context.Context, userID int64, limit int) ([]communication.Communication, error)
	MarkRead(ctx context.Context, id string, userID int64) error
}

// Service backs the per-user communication inbox. Sending lives in the
// dispatch orchestrator; this side only reads and acknowledges.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]communication.Communication, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.store.ListForUser(ctx, userID, limit)
}

func (s *Service) MarkRead(ctx context.Context, id string, userID int64) error {
	return s.store.MarkRead(ctx, id, userID)
}
