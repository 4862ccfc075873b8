// internal/service/alerts/service.go
package alerts

import (
	"context"
	"math"

	"studylink-service/internal/domain/alert"

	"go.uber.org/zap"
)

// QueryStore is the read/resolve surface for the alert list API, wider than
// the engine's AlertStore.
type QueryStore interface {
	List(ctx context.Context, filters *alert.ListFilters) ([]alert.Alert, int64, error)
	FindByID(ctx context.Context, id int64) (*alert.Alert, error)
	Resolve(ctx context.Context, id int64) error
}

// Service exposes alert browsing and manual resolution.
type Service struct {
	store  QueryStore
	logger *zap.Logger
}

func NewService(store QueryStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) List(ctx context.Context, filters *alert.ListFilters) (*alert.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	items, total, err := s.store.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &alert.ListResponse{
		Alerts:     items,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(filters.PageSize))),
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*alert.Alert, error) {
	return s.store.FindByID(ctx, id)
}

// Resolve marks an alert resolved by hand. Resolving an already resolved
// alert is a no-op, not an error.
func (s *Service) Resolve(ctx context.Context, id int64) (*alert.Alert, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsResolved {
		return a, nil
	}

	if err := s.store.Resolve(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("alert resolved manually", zap.Int64("alert_id", id))
	return s.store.FindByID(ctx, id)
}
