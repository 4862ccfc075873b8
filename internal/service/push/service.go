// internal/service/push/service.go
package push

import (
	"context"
	"net/url"

	pushdomain "studylink-service/internal/domain/push"
	"studylink-service/internal/pkg/xerrors"

	"go.uber.org/zap"
)

// Service manages push subscription registration for the browser client.
type Service struct {
	subs   SubscriptionStore
	logger *zap.Logger
}

func NewService(subs SubscriptionStore, logger *zap.Logger) *Service {
	return &Service{subs: subs, logger: logger}
}

// Register stores a browser push subscription for the user. Registering an
// endpoint that already exists rebinds it, so a device handed to another
// account stops notifying the previous one.
func (s *Service) Register(ctx context.Context, userID int64, req *pushdomain.RegisterRequest) (*pushdomain.Subscription, error) {
	u, err := url.Parse(req.Endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "endpoint must be an https URL")
	}

	sub := &pushdomain.Subscription{
		UserID:    userID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.Keys.P256dh,
		AuthKey:   req.Keys.Auth,
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("push subscription registered", zap.Int64("user_id", userID))
	return sub, nil
}

// Unregister removes one of the caller's own subscriptions. An endpoint the
// caller does not own reads as not found.
func (s *Service) Unregister(ctx context.Context, userID int64, endpoint string) error {
	owned, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, sub := range owned {
		if sub.Endpoint == endpoint {
			return s.subs.DeleteByEndpoint(ctx, endpoint)
		}
	}

	return xerrors.Wrap(xerrors.ErrNotFound, "push subscription not found")
}
