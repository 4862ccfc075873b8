// internal/service/alerts/engine.go
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studylink-service/internal/domain/alert"

	"go.uber.org/zap"
)

// ruleFunc evaluates one rule type against current state. The third return
// value is a rule-level failure (bad configuration, unreadable state) that
// skips the whole rule type; per-entity failures come back as RuleErrors and
// do not stop evaluation of the remaining entities.
type ruleFunc func(ctx context.Context, e *Engine, cfg *alert.Configuration) ([]alert.Candidate, []RuleError, error)

// RuleError is an entity-scoped evaluation failure. The target identifiers
// keep the resolve-on-clear pass from resolving alerts for entities whose
// state could not be read this run.
type RuleError struct {
	HospitalID *int64
	ProjectID  *int64
	Err        error
}

func (re RuleError) key(rt alert.RuleType) string {
	c := alert.Candidate{Type: rt, HospitalID: re.HospitalID, ProjectID: re.ProjectID}
	return c.DedupKey()
}

// Skip records one candidate (or rule type) that produced no new alert.
type Skip struct {
	DedupKey string `json:"dedup_key,omitempty"`
	Reason   string `json:"reason"`
}

// EvalResult is the outcome of evaluating one rule type.
type EvalResult struct {
	RuleType  alert.RuleType `json:"rule_type"`
	Generated []alert.Alert  `json:"generated"`
	Skipped   []Skip         `json:"skipped"`
	Errors    []string       `json:"errors"`
}

// Engine evaluates alert rules and persists deduplicated alerts. It holds no
// state between runs; the unresolved-alert rows are the only memory that
// spans invocations.
type Engine struct {
	alerts   AlertStore
	configs  ConfigurationStore
	progress ProgressStore
	logger   *zap.Logger

	now   func() time.Time
	rules map[alert.RuleType]ruleFunc
}

func NewEngine(alerts AlertStore, configs ConfigurationStore, progress ProgressStore, logger *zap.Logger) *Engine {
	e := &Engine{
		alerts:   alerts,
		configs:  configs,
		progress: progress,
		logger:   logger,
		now:      time.Now,
	}

	e.rules = map[alert.RuleType]ruleFunc{
		alert.RuleEthicsApprovalPending: evalEthicsPending,
		alert.RuleMissingDocumentation:  evalMissingDocumentation,
		alert.RuleUpcomingRecruitment:   evalUpcomingRecruitment,
		alert.RuleNoActivity:            evalNoActivity,
		alert.RuleLowCompletionRate:     evalLowCompletionRate,
	}

	return e
}

// Evaluate runs one rule type end to end: predicate, deduplication,
// resolve-on-clear, and persistence of new alerts.
func (e *Engine) Evaluate(ctx context.Context, ruleType alert.RuleType) EvalResult {
	res := EvalResult{
		RuleType:  ruleType,
		Generated: []alert.Alert{},
		Skipped:   []Skip{},
		Errors:    []string{},
	}

	rule, ok := e.rules[ruleType]
	if !ok {
		res.Errors = append(res.Errors, fmt.Sprintf("unknown rule type %q", ruleType))
		return res
	}

	cfg, err := e.configs.Get(ctx, ruleType)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("load configuration: %v", err))
		return res
	}
	if !cfg.Enabled {
		res.Skipped = append(res.Skipped, Skip{Reason: "rule type disabled"})
		return res
	}

	candidates, ruleErrs, err := rule(ctx, e, cfg)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	for _, re := range ruleErrs {
		res.Errors = append(res.Errors, re.Err.Error())
	}

	existing, err := e.alerts.ListUnresolvedByType(ctx, ruleType)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list unresolved alerts: %v", err))
		return res
	}

	existingByKey := make(map[string]alert.Alert, len(existing))
	for _, a := range existing {
		existingByKey[a.DedupKey()] = a
	}

	activeKeys := make(map[string]bool, len(candidates))
	for i := range candidates {
		activeKeys[candidates[i].DedupKey()] = true
	}
	erroredKeys := make(map[string]bool, len(ruleErrs))
	for _, re := range ruleErrs {
		erroredKeys[re.key(ruleType)] = true
	}

	// Resolve-on-clear: an unresolved alert whose condition no longer holds
	// is closed explicitly. Entities that errored this run are left alone.
	for key, ex := range existingByKey {
		if activeKeys[key] || erroredKeys[key] {
			continue
		}
		if err := e.alerts.Resolve(ctx, ex.ID); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("resolve alert %d: %v", ex.ID, err))
			continue
		}
		e.logger.Info("alert resolved, condition cleared",
			zap.Int64("alert_id", ex.ID),
			zap.String("rule_type", string(ruleType)),
		)
	}

	for i := range candidates {
		c := &candidates[i]
		key := c.DedupKey()

		if _, dup := existingByKey[key]; dup {
			res.Skipped = append(res.Skipped, Skip{DedupKey: key, Reason: "duplicate unresolved alert"})
			continue
		}

		a, err := buildAlert(c)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("build alert %s: %v", key, err))
			continue
		}

		created, err := e.alerts.Create(ctx, a)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("create alert %s: %v", key, err))
			continue
		}
		if !created {
			// The storage-level dedup index caught a concurrent run.
			res.Skipped = append(res.Skipped, Skip{DedupKey: key, Reason: "duplicate unresolved alert"})
			continue
		}

		res.Generated = append(res.Generated, *a)
	}

	return res
}

func buildAlert(c *alert.Candidate) (*alert.Alert, error) {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	return &alert.Alert{
		Type:       c.Type,
		Title:      c.Title,
		Message:    c.Message,
		Severity:   c.Severity,
		HospitalID: c.HospitalID,
		ProjectID:  c.ProjectID,
		Metadata:   metadata,
	}, nil
}

// requireThreshold validates the configured threshold for rules that need
// one. A missing or non-positive threshold is a configuration error.
func requireThreshold(cfg *alert.Configuration) (int, error) {
	if cfg.ThresholdValue == nil {
		return 0, fmt.Errorf("rule %s: threshold_value is not configured", cfg.AlertType)
	}
	if *cfg.ThresholdValue <= 0 {
		return 0, fmt.Errorf("rule %s: threshold_value %d is not positive", cfg.AlertType, *cfg.ThresholdValue)
	}
	return *cfg.ThresholdValue, nil
}
