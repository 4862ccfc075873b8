// internal/service/alerts/engine_test.go
package alerts

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/domain/study"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- fakes ---

type fakeAlertStore struct {
	mu     sync.Mutex
	nextID int64
	alerts map[int64]*alert.Alert

	failCreate bool
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: map[int64]*alert.Alert{}}
}

func (s *fakeAlertStore) Create(ctx context.Context, a *alert.Alert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreate {
		return false, fmt.Errorf("storage down")
	}

	for _, existing := range s.alerts {
		if !existing.IsResolved && existing.DedupKey() == a.DedupKey() {
			return false, nil
		}
	}

	s.nextID++
	a.ID = s.nextID
	a.CreatedAt = time.Now()
	stored := *a
	s.alerts[a.ID] = &stored
	return true, nil
}

func (s *fakeAlertStore) ListUnresolvedByType(ctx context.Context, rt alert.RuleType) ([]alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []alert.Alert{}
	for _, a := range s.alerts {
		if a.Type == rt && !a.IsResolved {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeAlertStore) Resolve(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return fmt.Errorf("alert %d not found", id)
	}
	a.IsResolved = true
	a.ResolvedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return nil
}

func (s *fakeAlertStore) unresolvedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.alerts {
		if !a.IsResolved {
			n++
		}
	}
	return n
}

type fakeConfigStore struct {
	cfgs map[alert.RuleType]*alert.Configuration
	err  error
}

func (s *fakeConfigStore) Get(ctx context.Context, rt alert.RuleType) (*alert.Configuration, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg, ok := s.cfgs[rt]
	if !ok {
		return nil, fmt.Errorf("configuration not found")
	}
	c := *cfg
	return &c, nil
}

type fakeProgressStore struct {
	ethics     []study.EthicsStatus
	docs       []study.DocumentationStatus
	recruit    []study.RecruitmentWindow
	activity   []study.ActivityStatus
	completion []study.CompletionStatus
	err        error
}

func (s *fakeProgressStore) ListEthicsPending(ctx context.Context) ([]study.EthicsStatus, error) {
	return s.ethics, s.err
}

func (s *fakeProgressStore) ListMissingDocumentation(ctx context.Context) ([]study.DocumentationStatus, error) {
	return s.docs, s.err
}

func (s *fakeProgressStore) ListUpcomingRecruitment(ctx context.Context, within time.Duration) ([]study.RecruitmentWindow, error) {
	return s.recruit, s.err
}

func (s *fakeProgressStore) ListActivity(ctx context.Context) ([]study.ActivityStatus, error) {
	return s.activity, s.err
}

func (s *fakeProgressStore) ListCompletionRates(ctx context.Context) ([]study.CompletionStatus, error) {
	return s.completion, s.err
}

// --- helpers ---

func intPtr(v int) *int { return &v }

func enabledConfig(rt alert.RuleType, threshold *int) *alert.Configuration {
	return &alert.Configuration{
		AlertType:      rt,
		Enabled:        true,
		NotifyAdmin:    true,
		ThresholdValue: threshold,
	}
}

func newTestEngine(alerts *fakeAlertStore, configs *fakeConfigStore, progress *fakeProgressStore) *Engine {
	e := NewEngine(alerts, configs, progress, zap.NewNop())
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

// --- tests ---

func TestEvaluateDisabledRuleSkips(t *testing.T) {
	store := newFakeAlertStore()
	cfg := enabledConfig(alert.RuleEthicsApprovalPending, intPtr(14))
	cfg.Enabled = false
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{alert.RuleEthicsApprovalPending: cfg}}

	e := newTestEngine(store, configs, &fakeProgressStore{
		ethics: []study.EthicsStatus{{HospitalID: 1, ProjectID: 9, HospitalName: "St. Anne", SubmittedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
	})

	res := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)

	assert.Empty(t, res.Generated)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "rule type disabled", res.Skipped[0].Reason)
	assert.Equal(t, 0, store.unresolvedCount())
}

func TestEvaluateGeneratesEthicsAlert(t *testing.T) {
	store := newFakeAlertStore()
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{
		alert.RuleEthicsApprovalPending: enabledConfig(alert.RuleEthicsApprovalPending, intPtr(14)),
	}}

	e := newTestEngine(store, configs, &fakeProgressStore{
		ethics: []study.EthicsStatus{
			// 20 days pending: flagged at medium.
			{HospitalID: 1, ProjectID: 9, HospitalName: "St. Anne", SubmittedAt: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)},
			// 5 days pending: under threshold.
			{HospitalID: 2, ProjectID: 9, HospitalName: "Mercy General", SubmittedAt: time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC)},
		},
	})

	res := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)

	require.Len(t, res.Generated, 1)
	a := res.Generated[0]
	assert.Equal(t, alert.RuleEthicsApprovalPending, a.Type)
	assert.Equal(t, alert.SeverityMedium, a.Severity)
	require.NotNil(t, a.HospitalID)
	assert.Equal(t, int64(1), *a.HospitalID)
	assert.Contains(t, a.Message, "20 days")
	assert.Empty(t, res.Errors)
}

func TestEvaluateSeverityEscalatesPastDoubleThreshold(t *testing.T) {
	store := newFakeAlertStore()
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{
		alert.RuleEthicsApprovalPending: enabledConfig(alert.RuleEthicsApprovalPending, intPtr(14)),
	}}

	e := newTestEngine(store, configs, &fakeProgressStore{
		ethics: []study.EthicsStatus{
			// 30 days pending against a 14-day threshold: escalated.
			{HospitalID: 3, ProjectID: 9, HospitalName: "Hilltop", SubmittedAt: time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)},
		},
	})

	res := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)

	require.Len(t, res.Generated, 1)
	assert.Equal(t, alert.SeverityHigh, res.Generated[0].Severity)
}

func TestEvaluateDeduplicatesUnresolvedAlerts(t *testing.T) {
	store := newFakeAlertStore()
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{
		alert.RuleEthicsApprovalPending: enabledConfig(alert.RuleEthicsApprovalPending, intPtr(14)),
	}}
	progress := &fakeProgressStore{
		ethics: []study.EthicsStatus{
			{HospitalID: 1, ProjectID: 9, HospitalName: "St. Anne", SubmittedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	e := newTestEngine(store, configs, progress)

	first := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)
	require.Len(t, first.Generated, 1)

	second := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)
	assert.Empty(t, second.Generated)
	require.Len(t, second.Skipped, 1)
	assert.Equal(t, "duplicate unresolved alert", second.Skipped[0].Reason)
	assert.Equal(t, 1, store.unresolvedCount())
}

func TestEvaluateResolvesClearedConditions(t *testing.T) {
	store := newFakeAlertStore()
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{
		alert.RuleEthicsApprovalPending: enabledConfig(alert.RuleEthicsApprovalPending, intPtr(14)),
	}}
	progress := &fakeProgressStore{
		ethics: []study.EthicsStatus{
			{HospitalID: 1, ProjectID: 9, HospitalName: "St. Anne", SubmittedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	e := newTestEngine(store, configs, progress)

	first := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)
	require.Len(t, first.Generated, 1)

	// Approval came through: the hospital disappears from the projection.
	progress.ethics = nil

	second := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)
	assert.Empty(t, second.Generated)
	assert.Empty(t, second.Errors)
	assert.Equal(t, 0, store.unresolvedCount())
}

func TestEvaluateKeepsAlertsForErroredEntities(t *testing.T) {
	store := newFakeAlertStore()
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{
		alert.RuleEthicsApprovalPending: enabledConfig(alert.RuleEthicsApprovalPending, intPtr(14)),
	}}
	progress := &fakeProgressStore{
		ethics: []study.EthicsStatus{
			{HospitalID: 1, ProjectID: 9, HospitalName: "St. Anne", SubmittedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	e := newTestEngine(store, configs, progress)
	first := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)
	require.Len(t, first.Generated, 1)

	// The same hospital now reports a corrupt submitted_at. The entity
	// errors, so its open alert must be left alone, not resolved.
	progress.ethics = []study.EthicsStatus{
		{HospitalID: 1, ProjectID: 9, HospitalName: "St. Anne", SubmittedAt: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	second := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)
	assert.Empty(t, second.Generated)
	require.Len(t, second.Errors, 1)
	assert.Contains(t, second.Errors[0], "in the future")
	assert.Equal(t, 1, store.unresolvedCount())
}

func TestEvaluateCompletionThresholdBoundary(t *testing.T) {
	store := newFakeAlertStore()
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{
		alert.RuleLowCompletionRate: enabledConfig(alert.RuleLowCompletionRate, intPtr(65)),
	}}

	e := newTestEngine(store, configs, &fakeProgressStore{
		completion: []study.CompletionStatus{
			{HospitalID: 1, ProjectID: 9, HospitalName: "At Threshold", Percentage: 65.0},
			{HospitalID: 2, ProjectID: 9, HospitalName: "Below Threshold", Percentage: 64.0},
		},
	})

	res := e.Evaluate(context.Background(), alert.RuleLowCompletionRate)

	require.Len(t, res.Generated, 1)
	require.NotNil(t, res.Generated[0].HospitalID)
	assert.Equal(t, int64(2), *res.Generated[0].HospitalID)
}

func TestEvaluateMissingThresholdIsRuleError(t *testing.T) {
	store := newFakeAlertStore()
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{
		alert.RuleNoActivity: enabledConfig(alert.RuleNoActivity, nil),
	}}

	e := newTestEngine(store, configs, &fakeProgressStore{
		activity: []study.ActivityStatus{
			{HospitalID: 1, ProjectID: 9, HospitalName: "St. Anne", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	})

	res := e.Evaluate(context.Background(), alert.RuleNoActivity)

	assert.Empty(t, res.Generated)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "threshold_value")
}

func TestEvaluateMissingDocumentationMessage(t *testing.T) {
	store := newFakeAlertStore()
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{
		alert.RuleMissingDocumentation: enabledConfig(alert.RuleMissingDocumentation, nil),
	}}

	e := newTestEngine(store, configs, &fakeProgressStore{
		docs: []study.DocumentationStatus{
			{HospitalID: 1, ProjectID: 9, HospitalName: "St. Anne", MissingDocuments: []string{"ethics approval letter", "site contract"}},
			{HospitalID: 2, ProjectID: 9, HospitalName: "Broken Row", MissingDocuments: nil},
		},
	})

	res := e.Evaluate(context.Background(), alert.RuleMissingDocumentation)

	require.Len(t, res.Generated, 1)
	assert.Contains(t, res.Generated[0].Message, "ethics approval letter")
	// The row claiming missing documentation with an empty list is a data
	// inconsistency, reported as an entity error.
	require.Len(t, res.Errors, 1)
}

func TestEvaluateRecordsCreateFailure(t *testing.T) {
	store := newFakeAlertStore()
	store.failCreate = true
	configs := &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{
		alert.RuleEthicsApprovalPending: enabledConfig(alert.RuleEthicsApprovalPending, intPtr(14)),
	}}

	e := newTestEngine(store, configs, &fakeProgressStore{
		ethics: []study.EthicsStatus{
			{HospitalID: 1, ProjectID: 9, HospitalName: "St. Anne", SubmittedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	})

	res := e.Evaluate(context.Background(), alert.RuleEthicsApprovalPending)

	assert.Empty(t, res.Generated)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "create alert")
}

func TestEvaluateUnknownRuleType(t *testing.T) {
	e := newTestEngine(newFakeAlertStore(), &fakeConfigStore{cfgs: map[alert.RuleType]*alert.Configuration{}}, &fakeProgressStore{})

	res := e.Evaluate(context.Background(), alert.RuleType("bogus"))

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "unknown rule type")
}
