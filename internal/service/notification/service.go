// internal/service/notification/service.go
package notification

import (
	"context"
	"math"

	"studylink-service/internal/domain/notification"

	"go.uber.org/zap"
)

type Store interface {
	ListForUser(ctx context.Context, userID int64, filters *notification.ListFilters) ([]notification.Notification, int64, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
}

// CountBroadcaster pushes unread-count updates to the user's live sessions.
type CountBroadcaster interface {
	NotifyUnreadCount(userID int64, count int)
}

// Service backs the per-user notification feed.
type Service struct {
	store  Store
	hub    CountBroadcaster
	logger *zap.Logger
}

func NewService(store Store, hub CountBroadcaster, logger *zap.Logger) *Service {
	return &Service{store: store, hub: hub, logger: logger}
}

func (s *Service) List(ctx context.Context, userID int64, filters *notification.ListFilters) (*notification.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	items, total, err := s.store.ListForUser(ctx, userID, filters)
	if err != nil {
		return nil, err
	}

	unread, err := s.store.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &notification.ListResponse{
		Notifications: items,
		Total:         total,
		Unread:        unread,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    int(math.Ceil(float64(total) / float64(filters.PageSize))),
	}, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.store.GetUnreadCount(ctx, userID)
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	if err := s.store.MarkAsRead(ctx, id, userID); err != nil {
		return err
	}
	s.broadcastCount(ctx, userID)
	return nil
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	if err := s.store.MarkAllAsRead(ctx, userID); err != nil {
		return err
	}
	s.broadcastCount(ctx, userID)
	return nil
}

func (s *Service) broadcastCount(ctx context.Context, userID int64) {
	if s.hub == nil {
		return
	}
	count, err := s.store.GetUnreadCount(ctx, userID)
	if err != nil {
		s.logger.Warn("unread count lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	s.hub.NotifyUnreadCount(userID, count)
}
