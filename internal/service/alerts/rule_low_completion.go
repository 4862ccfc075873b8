// internal/service/alerts/rule_low_completion.go
package alerts

import (
	"context"
	"fmt"

	"studylink-service/internal/domain/alert"
)

// evalLowCompletionRate flags hospitals whose completion percentage is
// strictly below the configured threshold. An entity at exactly the
// threshold is not flagged.
func evalLowCompletionRate(ctx context.Context, e *Engine, cfg *alert.Configuration) ([]alert.Candidate, []RuleError, error) {
	thresholdPct, err := requireThreshold(cfg)
	if err != nil {
		return nil, nil, err
	}

	statuses, err := e.progress.ListCompletionRates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list completion rates: %w", err)
	}

	candidates := []alert.Candidate{}
	ruleErrs := []RuleError{}

	for _, s := range statuses {
		s := s
		if s.Percentage < 0 || s.Percentage > 100 {
			ruleErrs = append(ruleErrs, RuleError{
				HospitalID: &s.HospitalID,
				ProjectID:  &s.ProjectID,
				Err:        fmt.Errorf("hospital %d: completion percentage %.1f out of range", s.HospitalID, s.Percentage),
			})
			continue
		}

		if s.Percentage >= float64(thresholdPct) {
			continue
		}

		shortfall := float64(thresholdPct) - s.Percentage

		candidates = append(candidates, alert.Candidate{
			Type:  alert.RuleLowCompletionRate,
			Title: "Low completion rate",
			Message: fmt.Sprintf("%s is at %.1f%% completion, below the %d%% target.",
				s.HospitalName, s.Percentage, thresholdPct),
			Severity:   deriveSeverity(alert.RuleLowCompletionRate, shortfall, float64(thresholdPct)),
			HospitalID: &s.HospitalID,
			ProjectID:  &s.ProjectID,
			Metadata:   alert.CompletionMeta{Percentage: s.Percentage},
		})
	}

	return candidates, ruleErrs, nil
}
