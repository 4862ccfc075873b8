// internal/service/push/sender_test.go
package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	pushdomain "studylink-service/internal/domain/push"
	"studylink-service/internal/domain/user"
	"studylink-service/internal/pkg/xerrors"
	"studylink-service/internal/service/dispatch"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSubStore struct {
	subs    map[int64][]pushdomain.Subscription
	deleted []string
	listErr error
}

func newFakeSubStore() *fakeSubStore {
	return &fakeSubStore{subs: map[int64][]pushdomain.Subscription{}}
}

func (s *fakeSubStore) Upsert(ctx context.Context, sub *pushdomain.Subscription) error {
	s.subs[sub.UserID] = append(s.subs[sub.UserID], *sub)
	return nil
}

func (s *fakeSubStore) ListByUser(ctx context.Context, userID int64) ([]pushdomain.Subscription, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.subs[userID], nil
}

func (s *fakeSubStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	s.deleted = append(s.deleted, endpoint)
	for uid, subs := range s.subs {
		kept := subs[:0]
		for _, sub := range subs {
			if sub.Endpoint != endpoint {
				kept = append(kept, sub)
			}
		}
		s.subs[uid] = kept
	}
	return nil
}

// subscriptionKeys produces a valid browser-side keypair so payload
// encryption succeeds before the HTTP round trip.
func subscriptionKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()

	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

func newTestSender(t *testing.T, store *fakeSubStore) *Sender {
	t.Helper()

	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	return NewSender(store, VAPIDConfig{
		PublicKey:  pub,
		PrivateKey: priv,
		Subscriber: "mailto:ops@studylink.app",
	}, http.DefaultClient, zap.NewNop())
}

func pushServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/reject":
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testMessage() dispatch.Message {
	return dispatch.Message{Subject: "Ethics approval pending", Body: "21 days and counting"}
}

func TestSendNoSubscriptionsSkips(t *testing.T) {
	s := newTestSender(t, newFakeSubStore())

	out := s.Send(context.Background(), user.User{ID: 7}, testMessage())

	assert.Equal(t, dispatch.StatusSkipped, out.Status)
	assert.Equal(t, "no push subscriptions", out.Detail)
}

func TestSendDelivers(t *testing.T) {
	srv := pushServer(t)
	p256dh, auth := subscriptionKeys(t)

	store := newFakeSubStore()
	store.subs[7] = []pushdomain.Subscription{
		{UserID: 7, Endpoint: srv.URL + "/ok", P256dhKey: p256dh, AuthKey: auth},
	}

	s := newTestSender(t, store)
	out := s.Send(context.Background(), user.User{ID: 7}, testMessage())

	assert.Equal(t, dispatch.StatusSent, out.Status)
	assert.Empty(t, store.deleted)
}

func TestSendPrunesGoneEndpoints(t *testing.T) {
	srv := pushServer(t)
	p256dh, auth := subscriptionKeys(t)

	store := newFakeSubStore()
	store.subs[7] = []pushdomain.Subscription{
		{UserID: 7, Endpoint: srv.URL + "/gone", P256dhKey: p256dh, AuthKey: auth},
	}

	s := newTestSender(t, store)
	out := s.Send(context.Background(), user.User{ID: 7}, testMessage())

	assert.Equal(t, dispatch.StatusSkipped, out.Status)
	assert.Contains(t, out.Detail, "stale")
	assert.Equal(t, []string{srv.URL + "/gone"}, store.deleted)
}

func TestSendMixedSubscriptions(t *testing.T) {
	srv := pushServer(t)
	p256dh, auth := subscriptionKeys(t)

	store := newFakeSubStore()
	store.subs[7] = []pushdomain.Subscription{
		{UserID: 7, Endpoint: srv.URL + "/gone", P256dhKey: p256dh, AuthKey: auth},
		{UserID: 7, Endpoint: srv.URL + "/ok", P256dhKey: p256dh, AuthKey: auth},
	}

	s := newTestSender(t, store)
	out := s.Send(context.Background(), user.User{ID: 7}, testMessage())

	// One live device is a successful send; the dead one is pruned quietly.
	assert.Equal(t, dispatch.StatusSent, out.Status)
	assert.Equal(t, []string{srv.URL + "/gone"}, store.deleted)
}

func TestSendServiceRejectionFails(t *testing.T) {
	srv := pushServer(t)
	p256dh, auth := subscriptionKeys(t)

	store := newFakeSubStore()
	store.subs[7] = []pushdomain.Subscription{
		{UserID: 7, Endpoint: srv.URL + "/reject", P256dhKey: p256dh, AuthKey: auth},
	}

	s := newTestSender(t, store)
	out := s.Send(context.Background(), user.User{ID: 7}, testMessage())

	assert.Equal(t, dispatch.StatusFailed, out.Status)
	assert.Contains(t, out.Detail, "400")
	assert.Empty(t, store.deleted, "a 400 is not a stale endpoint")
}

func TestSendSubscriptionLookupFailure(t *testing.T) {
	store := newFakeSubStore()
	store.listErr = assert.AnError

	s := newTestSender(t, store)
	out := s.Send(context.Background(), user.User{ID: 7}, testMessage())

	assert.Equal(t, dispatch.StatusFailed, out.Status)
}

func TestRegisterRejectsNonHTTPSEndpoint(t *testing.T) {
	svc := NewService(newFakeSubStore(), zap.NewNop())

	_, err := svc.Register(context.Background(), 7, &pushdomain.RegisterRequest{
		Endpoint: "http://insecure.example.com/push",
		Keys:     pushdomain.SubscriptionKeys{P256dh: "k", Auth: "a"},
	})

	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
}

func TestUnregisterForeignEndpointNotFound(t *testing.T) {
	store := newFakeSubStore()
	store.subs[8] = []pushdomain.Subscription{{UserID: 8, Endpoint: "https://push.example.com/other"}}

	svc := NewService(store, zap.NewNop())

	err := svc.Unregister(context.Background(), 7, "https://push.example.com/other")
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))
	assert.Empty(t, store.deleted)
}

func TestUnregisterOwnEndpoint(t *testing.T) {
	store := newFakeSubStore()
	store.subs[7] = []pushdomain.Subscription{{UserID: 7, Endpoint: "https://push.example.com/mine"}}

	svc := NewService(store, zap.NewNop())

	require.NoError(t, svc.Unregister(context.Background(), 7, "https://push.example.com/mine"))
	assert.Equal(t, []string{"https://push.example.com/mine"}, store.deleted)
}
