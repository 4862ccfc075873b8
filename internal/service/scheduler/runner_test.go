// internal/service/scheduler/runner_test.go
package scheduler

import (
	"context"
	"sync"
	"testing"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/service/alerts"
	"studylink-service/internal/service/dispatch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEvaluator struct {
	results map[alert.RuleType]alerts.EvalResult
	panics  map[alert.RuleType]bool
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, rt alert.RuleType) alerts.EvalResult {
	if e.panics[rt] {
		panic("nil map write in rule")
	}
	if res, ok := e.results[rt]; ok {
		return res
	}
	return alerts.EvalResult{RuleType: rt, Generated: []alert.Alert{}, Skipped: []alerts.Skip{}, Errors: []string{}}
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []int64
	report     *dispatch.DeliveryReport
}

func (d *fakeDispatcher) DispatchAlert(ctx context.Context, cfg *alert.Configuration, a *alert.Alert) (*dispatch.DeliveryReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, a.ID)
	if d.report != nil {
		return d.report, nil
	}
	return &dispatch.DeliveryReport{Recipients: 1, Sent: 1, Outcomes: []dispatch.RecipientOutcome{{UserID: 1, Status: dispatch.StatusSent}}}, nil
}

type fakeConfigs struct{}

func (fakeConfigs) Get(ctx context.Context, rt alert.RuleType) (*alert.Configuration, error) {
	return &alert.Configuration{AlertType: rt, Enabled: true, NotifyAdmin: true}, nil
}

func TestRunAllAlertChecksCoversEveryRuleType(t *testing.T) {
	engine := &fakeEvaluator{}
	runner := NewRunner(engine, fakeConfigs{}, &fakeDispatcher{}, 2, zap.NewNop())

	summary := runner.RunAllAlertChecks(context.Background())

	require.NotNil(t, summary)
	assert.NotEmpty(t, summary.RunID)

	ruleTypes := alert.AllRuleTypes()
	require.Len(t, summary.Details, len(ruleTypes))
	for i, rt := range ruleTypes {
		assert.Equal(t, string(rt), summary.Details[i].AlertType)
	}
	assert.Equal(t, 0, summary.TotalGenerated)
	assert.Equal(t, 0, summary.TotalErrors)
}

func TestRunAllAlertChecksDispatchesGeneratedAlerts(t *testing.T) {
	engine := &fakeEvaluator{results: map[alert.RuleType]alerts.EvalResult{
		alert.RuleEthicsApprovalPending: {
			RuleType:  alert.RuleEthicsApprovalPending,
			Generated: []alert.Alert{{ID: 11, Type: alert.RuleEthicsApprovalPending}, {ID: 12, Type: alert.RuleEthicsApprovalPending}},
			Skipped:   []alerts.Skip{{Reason: "duplicate unresolved alert"}},
			Errors:    []string{},
		},
	}}
	dispatcher := &fakeDispatcher{}
	runner := NewRunner(engine, fakeConfigs{}, dispatcher, 2, zap.NewNop())

	summary := runner.RunAllAlertChecks(context.Background())

	assert.Equal(t, 2, summary.TotalGenerated)
	assert.Equal(t, 1, summary.TotalSkipped)
	assert.ElementsMatch(t, []int64{11, 12}, dispatcher.dispatched)
}

func TestRunAllAlertChecksSurvivesPanic(t *testing.T) {
	engine := &fakeEvaluator{
		panics: map[alert.RuleType]bool{alert.RuleNoActivity: true},
		results: map[alert.RuleType]alerts.EvalResult{
			alert.RuleLowCompletionRate: {
				RuleType:  alert.RuleLowCompletionRate,
				Generated: []alert.Alert{{ID: 20, Type: alert.RuleLowCompletionRate}},
				Skipped:   []alerts.Skip{},
				Errors:    []string{},
			},
		},
	}
	dispatcher := &fakeDispatcher{}
	runner := NewRunner(engine, fakeConfigs{}, dispatcher, 2, zap.NewNop())

	summary := runner.RunAllAlertChecks(context.Background())

	// The panicking rule contributes one error; the healthy rules still ran.
	require.Len(t, summary.Details, len(alert.AllRuleTypes()))
	assert.Equal(t, 1, summary.TotalErrors)
	assert.Equal(t, 1, summary.TotalGenerated)
	assert.Equal(t, []int64{20}, dispatcher.dispatched)

	for _, detail := range summary.Details {
		if detail.AlertType == string(alert.RuleNoActivity) {
			require.Len(t, detail.Errors, 1)
			assert.Contains(t, detail.Errors[0], "panic")
		}
	}
}

func TestRunAllAlertChecksReportsDeliveryFailures(t *testing.T) {
	engine := &fakeEvaluator{results: map[alert.RuleType]alerts.EvalResult{
		alert.RuleMissingDocumentation: {
			RuleType:  alert.RuleMissingDocumentation,
			Generated: []alert.Alert{{ID: 30, Type: alert.RuleMissingDocumentation}},
			Skipped:   []alerts.Skip{},
			Errors:    []string{},
		},
	}}
	dispatcher := &fakeDispatcher{report: &dispatch.DeliveryReport{
		Recipients: 2,
		Sent:       1,
		Failed:     1,
		Outcomes: []dispatch.RecipientOutcome{
			{UserID: 1, Status: dispatch.StatusSent},
			{UserID: 2, Status: dispatch.StatusFailed, Detail: "smtp timeout"},
		},
	}}
	runner := NewRunner(engine, fakeConfigs{}, dispatcher, 2, zap.NewNop())

	summary := runner.RunAllAlertChecks(context.Background())

	assert.Equal(t, 1, summary.TotalErrors)
	for _, detail := range summary.Details {
		if detail.AlertType == string(alert.RuleMissingDocumentation) {
			require.Len(t, detail.Errors, 1)
			assert.Contains(t, detail.Errors[0], "1 of 2 deliveries failed")
		}
	}
}
