// internal/service/push/sender.go
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	pushdomain "studylink-service/internal/domain/push"
	"studylink-service/internal/domain/user"
	"studylink-service/internal/service/dispatch"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

// SubscriptionStore is the persistence surface for browser push endpoints.
type SubscriptionStore interface {
	Upsert(ctx context.Context, s *pushdomain.Subscription) error
	ListByUser(ctx context.Context, userID int64) ([]pushdomain.Subscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// VAPIDConfig holds the keypair identifying this server to push services.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string // mailto: contact required by the VAPID spec
}

// Sender delivers browser push notifications over the Web Push protocol. A
// user may hold several subscriptions (one per browser/device); each is
// attempted independently and stale endpoints are pruned as they are found.
type Sender struct {
	subs   SubscriptionStore
	vapid  VAPIDConfig
	client *http.Client
	logger *zap.Logger
}

func NewSender(subs SubscriptionStore, vapid VAPIDConfig, client *http.Client, logger *zap.Logger) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sender{subs: subs, vapid: vapid, client: client, logger: logger}
}

func (s *Sender) Channel() dispatch.Channel { return dispatch.ChannelPush }

func (s *Sender) Send(ctx context.Context, recipient user.User, msg dispatch.Message) dispatch.Outcome {
	subscriptions, err := s.subs.ListByUser(ctx, recipient.ID)
	if err != nil {
		return dispatch.Outcome{Channel: dispatch.ChannelPush, Status: dispatch.StatusFailed, Detail: err.Error()}
	}
	if len(subscriptions) == 0 {
		return dispatch.Outcome{Channel: dispatch.ChannelPush, Status: dispatch.StatusSkipped, Detail: "no push subscriptions"}
	}

	payload, err := json.Marshal(map[string]string{
		"title": msg.Subject,
		"body":  msg.Body,
		"type":  string(msg.Type),
	})
	if err != nil {
		return dispatch.Outcome{Channel: dispatch.ChannelPush, Status: dispatch.StatusFailed, Detail: err.Error()}
	}

	var delivered, stale int
	var lastErr error

	for _, sub := range subscriptions {
		gone, err := s.push(ctx, &sub, payload)
		switch {
		case gone:
			stale++
			if err := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				s.logger.Warn("prune stale push subscription failed",
					zap.String("endpoint", sub.Endpoint),
					zap.Error(err),
				)
			}
		case err != nil:
			lastErr = err
			s.logger.Error("push delivery failed",
				zap.Int64("user_id", recipient.ID),
				zap.Error(err),
			)
		default:
			delivered++
		}
	}

	switch {
	case delivered > 0:
		return dispatch.Outcome{Channel: dispatch.ChannelPush, Status: dispatch.StatusSent}
	case lastErr != nil:
		return dispatch.Outcome{Channel: dispatch.ChannelPush, Status: dispatch.StatusFailed, Detail: lastErr.Error()}
	default:
		return dispatch.Outcome{Channel: dispatch.ChannelPush, Status: dispatch.StatusSkipped, Detail: fmt.Sprintf("%d stale subscriptions removed", stale)}
	}
}

// push sends one Web Push message. gone=true means the push service reported
// the endpoint permanently dead (404/410) and the subscription must go.
func (s *Sender) push(ctx context.Context, sub *pushdomain.Subscription, payload []byte) (gone bool, err error) {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.vapid.Subscriber,
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             60,
	})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	// The library does not turn HTTP errors into Go errors; classify the
	// status ourselves.
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return true, nil
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return false, nil
}
