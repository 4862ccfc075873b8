// internal/service/dispatch/orchestrator_test.go
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/domain/communication"
	"studylink-service/internal/domain/user"
	"studylink-service/internal/service/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- fakes ---

type fakeUserStore struct {
	admins       []user.User
	coordinators []user.User
	byID         map[int64]user.User
}

func (s *fakeUserStore) ListActiveAdmins(ctx context.Context) ([]user.User, error) {
	return s.admins, nil
}

func (s *fakeUserStore) ListCoordinators(ctx context.Context, hospitalID, projectID *int64) ([]user.User, error) {
	return s.coordinators, nil
}

func (s *fakeUserStore) FindActiveByIDs(ctx context.Context, ids []int64) ([]user.User, error) {
	out := []user.User{}
	for _, id := range ids {
		if u, ok := s.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type sentRecord struct {
	UserID  int64
	Message Message
}

type fakeSender struct {
	ch     Channel
	status OutcomeStatus
	detail string

	mu   sync.Mutex
	sent []sentRecord
}

func (s *fakeSender) Channel() Channel { return s.ch }

func (s *fakeSender) Send(ctx context.Context, rcpt user.User, msg Message) Outcome {
	s.mu.Lock()
	s.sent = append(s.sent, sentRecord{UserID: rcpt.ID, Message: msg})
	s.mu.Unlock()
	return Outcome{Channel: s.ch, Status: s.status, Detail: s.detail}
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeTemplateStore struct {
	templates   map[int64]*communication.Template
	usageBumped []int64
}

func (s *fakeTemplateStore) FindByID(ctx context.Context, id int64) (*communication.Template, error) {
	tpl, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %d not found", id)
	}
	return tpl, nil
}

func (s *fakeTemplateStore) IncrementUsage(ctx context.Context, id int64) error {
	s.usageBumped = append(s.usageBumped, id)
	return nil
}

type fakeCommStore struct {
	mu        sync.Mutex
	created   []communication.Communication
	failUsers map[int64]bool
}

func (s *fakeCommStore) Create(ctx context.Context, c *communication.Communication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUsers[c.UserID] {
		return fmt.Errorf("insert failed")
	}
	s.created = append(s.created, *c)
	return nil
}

// --- helpers ---

func i64(v int64) *int64 { return &v }

func newTestOrchestrator(t *testing.T, users *fakeUserStore, templates *fakeTemplateStore, comms *fakeCommStore, senders ...Sender) *Orchestrator {
	t.Helper()

	if templates == nil {
		templates = &fakeTemplateStore{templates: map[int64]*communication.Template{}}
	}
	if comms == nil {
		comms = &fakeCommStore{}
	}

	o, err := NewOrchestrator(
		senders,
		NewRecipientResolver(users),
		templates,
		comms,
		template.NewRenderer(zap.NewNop()),
		4,
		zap.NewNop(),
	)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o
}

func adminConfig() *alert.Configuration {
	return &alert.Configuration{
		AlertType:   alert.RuleEthicsApprovalPending,
		Enabled:     true,
		NotifyAdmin: true,
	}
}

func testAlert() *alert.Alert {
	return &alert.Alert{
		ID:         42,
		Type:       alert.RuleEthicsApprovalPending,
		Title:      "Ethics approval pending",
		Message:    "Approval pending 21 days at St. Anne.",
		Severity:   alert.SeverityMedium,
		HospitalID: i64(1),
		ProjectID:  i64(9),
	}
}

// --- tests ---

func TestDispatchAlertFansOut(t *testing.T) {
	users := &fakeUserStore{admins: []user.User{{ID: 1}, {ID: 2}}}
	inApp := &fakeSender{ch: ChannelInApp, status: StatusSent}
	push := &fakeSender{ch: ChannelPush, status: StatusSent}

	o := newTestOrchestrator(t, users, nil, nil, inApp, push)

	report, err := o.DispatchAlert(context.Background(), adminConfig(), testAlert())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Recipients)
	assert.Equal(t, 4, report.Sent)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, inApp.sentCount())
	assert.Equal(t, 2, push.sentCount())
}

func TestDispatchAlertNoRecipients(t *testing.T) {
	users := &fakeUserStore{}
	o := newTestOrchestrator(t, users, nil, nil, &fakeSender{ch: ChannelInApp, status: StatusSent})

	report, err := o.DispatchAlert(context.Background(), adminConfig(), testAlert())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Recipients)
	assert.Empty(t, report.Outcomes)
}

func TestDispatchAlertChannelFailureIsIsolated(t *testing.T) {
	users := &fakeUserStore{admins: []user.User{{ID: 1}}}
	inApp := &fakeSender{ch: ChannelInApp, status: StatusSent}
	push := &fakeSender{ch: ChannelPush, status: StatusFailed, detail: "push service returned 400"}

	o := newTestOrchestrator(t, users, nil, nil, inApp, push)

	report, err := o.DispatchAlert(context.Background(), adminConfig(), testAlert())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
}

func TestDispatchAlertUnconfiguredChannelSkips(t *testing.T) {
	users := &fakeUserStore{admins: []user.User{{ID: 1}}}
	cfg := adminConfig()
	cfg.AutoSendEmail = true

	// No email sender registered: the email leg degrades to a skip.
	o := newTestOrchestrator(t, users, nil, nil,
		&fakeSender{ch: ChannelInApp, status: StatusSent},
		&fakeSender{ch: ChannelPush, status: StatusSent},
	)

	report, err := o.DispatchAlert(context.Background(), cfg, testAlert())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Skipped)
}

func TestDispatchAlertRendersEmailTemplate(t *testing.T) {
	users := &fakeUserStore{admins: []user.User{{ID: 1}}}
	templates := &fakeTemplateStore{templates: map[int64]*communication.Template{
		5: {
			ID:      5,
			Name:    "alert-email",
			Subject: "[StudyLink] {{title}}",
			Body:    "{{message}} (severity {{severity}})",
		},
	}}

	cfg := adminConfig()
	cfg.AutoSendEmail = true
	cfg.EmailTemplateID = i64(5)

	email := &fakeSender{ch: ChannelEmail, status: StatusSent}
	o := newTestOrchestrator(t, users, templates, nil,
		&fakeSender{ch: ChannelInApp, status: StatusSent},
		&fakeSender{ch: ChannelPush, status: StatusSent},
		email,
	)

	report, err := o.DispatchAlert(context.Background(), cfg, testAlert())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Sent)
	require.Equal(t, 1, email.sentCount())
	assert.Equal(t, "[StudyLink] Ethics approval pending", email.sent[0].Message.Subject)
	assert.Contains(t, email.sent[0].Message.Body, "severity medium")
	assert.Equal(t, []int64{5}, templates.usageBumped)
}

func TestSendManualInvalidChannel(t *testing.T) {
	users := &fakeUserStore{byID: map[int64]user.User{1: {ID: 1}}}
	o := newTestOrchestrator(t, users, nil, nil, &fakeSender{ch: ChannelInApp, status: StatusSent})

	_, err := o.SendManual(context.Background(), 99, &communication.SendRequest{
		RecipientIDs: []int64{1},
		Subject:      "hi",
		Body:         "there",
		Channels:     []string{"carrier_pigeon"},
	})

	assert.Error(t, err)
}

func TestSendManualWritesCommunicationRows(t *testing.T) {
	users := &fakeUserStore{byID: map[int64]user.User{
		1: {ID: 1},
		2: {ID: 2},
	}}
	comms := &fakeCommStore{}
	inApp := &fakeSender{ch: ChannelInApp, status: StatusSent}

	o := newTestOrchestrator(t, users, nil, comms, inApp)

	report, err := o.SendManual(context.Background(), 99, &communication.SendRequest{
		RecipientIDs: []int64{1, 2},
		Subject:      "Site visit",
		Body:         "Please confirm availability.",
		Channels:     []string{"in_app"},
		HospitalID:   i64(1),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Recipients)
	assert.Equal(t, 2, report.Sent)
	require.Len(t, comms.created, 2)
	for _, c := range comms.created {
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, int64(99), c.SenderID)
		assert.Equal(t, "Site visit", c.Subject)
	}
}

func TestSendManualRowFailureExcludesRecipient(t *testing.T) {
	users := &fakeUserStore{byID: map[int64]user.User{
		1: {ID: 1},
		2: {ID: 2},
	}}
	comms := &fakeCommStore{failUsers: map[int64]bool{2: true}}
	inApp := &fakeSender{ch: ChannelInApp, status: StatusSent}

	o := newTestOrchestrator(t, users, nil, comms, inApp)

	report, err := o.SendManual(context.Background(), 99, &communication.SendRequest{
		RecipientIDs: []int64{1, 2},
		Subject:      "Site visit",
		Body:         "Please confirm availability.",
		Channels:     []string{"in_app"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, inApp.sentCount())
	assert.Equal(t, int64(1), inApp.sent[0].UserID)
}

func TestSendManualUnknownRecipientsDropped(t *testing.T) {
	users := &fakeUserStore{byID: map[int64]user.User{1: {ID: 1}}}
	o := newTestOrchestrator(t, users, nil, nil, &fakeSender{ch: ChannelInApp, status: StatusSent})

	report, err := o.SendManual(context.Background(), 99, &communication.SendRequest{
		RecipientIDs: []int64{1, 404},
		Subject:      "hi",
		Body:         "there",
		Channels:     []string{"in_app"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Recipients)
}

func TestResolverDeduplicatesAdminCoordinatorOverlap(t *testing.T) {
	users := &fakeUserStore{
		admins:       []user.User{{ID: 1}, {ID: 2}},
		coordinators: []user.User{{ID: 2}, {ID: 3}},
	}

	cfg := adminConfig()
	cfg.NotifyCoordinator = true

	resolver := NewRecipientResolver(users)
	recipients, err := resolver.ForAlert(context.Background(), cfg, testAlert())
	require.NoError(t, err)

	require.Len(t, recipients, 3)
	assert.Equal(t, int64(1), recipients[0].ID)
	assert.Equal(t, int64(2), recipients[1].ID)
	assert.Equal(t, int64(3), recipients[2].ID)
}
