// internal/service/scheduler/runner.go
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/service/alerts"
	"studylink-service/internal/service/dispatch"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Evaluator runs one rule type. The alert engine satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, ruleType alert.RuleType) alerts.EvalResult
}

// Dispatcher fans a generated alert out to its recipients.
type Dispatcher interface {
	DispatchAlert(ctx context.Context, cfg *alert.Configuration, a *alert.Alert) (*dispatch.DeliveryReport, error)
}

// ConfigurationStore provides the notify/email policy for dispatching.
type ConfigurationStore interface {
	Get(ctx context.Context, ruleType alert.RuleType) (*alert.Configuration, error)
}

// RuleReport is the per-rule-type slice of a run summary.
type RuleReport struct {
	AlertType string   `json:"alertType"`
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// RunSummary is the complete result of one scheduler-triggered run. It is
// always produced: rule failures land in the per-rule error lists, never in
// a transport error.
type RunSummary struct {
	RunID          string       `json:"runId"`
	StartedAt      time.Time    `json:"startedAt"`
	DurationMillis int64        `json:"durationMillis"`
	TotalGenerated int          `json:"totalGenerated"`
	TotalSkipped   int          `json:"totalSkipped"`
	TotalErrors    int          `json:"totalErrors"`
	Details        []RuleReport `json:"details"`
}

// Runner drives one full alert-check cycle: every rule type is evaluated,
// newly generated alerts are dispatched, and the whole run is summarized.
type Runner struct {
	engine      Evaluator
	configs     ConfigurationStore
	dispatcher  Dispatcher
	logger      *zap.Logger
	concurrency int
}

func NewRunner(engine Evaluator, configs ConfigurationStore, dispatcher Dispatcher, concurrency int, logger *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Runner{
		engine:      engine,
		configs:     configs,
		dispatcher:  dispatcher,
		logger:      logger,
		concurrency: concurrency,
	}
}

// RunAllAlertChecks evaluates every rule type with bounded concurrency. One
// rule's failure, panic included, never stops the others; the summary always
// covers all rule types in their canonical order.
func (r *Runner) RunAllAlertChecks(ctx context.Context) *RunSummary {
	runID := ulid.Make().String()
	start := time.Now()

	ruleTypes := alert.AllRuleTypes()
	reports := make([]RuleReport, len(ruleTypes))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.concurrency)

	for i, rt := range ruleTypes {
		i, rt := i, rt
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			reports[i] = r.runRule(ctx, runID, rt)
		}()
	}
	wg.Wait()

	summary := &RunSummary{
		RunID:          runID,
		StartedAt:      start,
		DurationMillis: time.Since(start).Milliseconds(),
		Details:        reports,
	}
	for _, rep := range reports {
		summary.TotalGenerated += rep.Generated
		summary.TotalSkipped += rep.Skipped
		summary.TotalErrors += len(rep.Errors)
	}

	r.logger.Info("alert check run finished",
		zap.String("run_id", runID),
		zap.Int("generated", summary.TotalGenerated),
		zap.Int("skipped", summary.TotalSkipped),
		zap.Int("errors", summary.TotalErrors),
		zap.Int64("duration_ms", summary.DurationMillis),
	)

	return summary
}

// runRule evaluates and dispatches one rule type. The named return lets the
// recover path hand back whatever was accumulated before a panic.
func (r *Runner) runRule(ctx context.Context, runID string, rt alert.RuleType) (report RuleReport) {
	report = RuleReport{AlertType: string(rt), Errors: []string{}}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("rule evaluation panicked",
				zap.String("run_id", runID),
				zap.String("rule_type", string(rt)),
				zap.Any("panic", rec),
			)
			report.Errors = append(report.Errors, fmt.Sprintf("panic: %v", rec))
		}
	}()

	res := r.engine.Evaluate(ctx, rt)
	report.Generated = len(res.Generated)
	report.Skipped = len(res.Skipped)
	report.Errors = append(report.Errors, res.Errors...)

	if len(res.Generated) == 0 {
		return report
	}

	cfg, err := r.configs.Get(ctx, rt)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("load configuration for dispatch: %v", err))
		return report
	}

	for i := range res.Generated {
		a := &res.Generated[i]
		delivery, err := r.dispatcher.DispatchAlert(ctx, cfg, a)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("dispatch alert %d: %v", a.ID, err))
			continue
		}
		if delivery.Failed > 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("alert %d: %d of %d deliveries failed", a.ID, delivery.Failed, len(delivery.Outcomes)))
		}
		r.logger.Info("alert dispatched",
			zap.String("run_id", runID),
			zap.Int64("alert_id", a.ID),
			zap.Int("recipients", delivery.Recipients),
			zap.Int("sent", delivery.Sent),
			zap.Int("failed", delivery.Failed),
			zap.Int("skipped", delivery.Skipped),
		)
	}

	return report
}
