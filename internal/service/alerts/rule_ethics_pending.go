// internal/service/alerts/rule_ethics_pending.go
package alerts

import (
	"context"
	"fmt"
	"time"

	"studylink-service/internal/domain/alert"
)

// evalEthicsPending flags hospitals whose ethics submission has been pending
// approval for at least the configured number of days.
func evalEthicsPending(ctx context.Context, e *Engine, cfg *alert.Configuration) ([]alert.Candidate, []RuleError, error) {
	thresholdDays, err := requireThreshold(cfg)
	if err != nil {
		return nil, nil, err
	}

	statuses, err := e.progress.ListEthicsPending(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list ethics-pending hospitals: %w", err)
	}

	now := e.now()
	candidates := []alert.Candidate{}
	ruleErrs := []RuleError{}

	for _, s := range statuses {
		s := s
		if s.SubmittedAt.After(now) {
			ruleErrs = append(ruleErrs, RuleError{
				HospitalID: &s.HospitalID,
				ProjectID:  &s.ProjectID,
				Err:        fmt.Errorf("hospital %d: ethics submitted_at %s is in the future", s.HospitalID, s.SubmittedAt.Format(time.RFC3339)),
			})
			continue
		}

		daysPending := int(now.Sub(s.SubmittedAt).Hours() / 24)
		if daysPending < thresholdDays {
			continue
		}

		candidates = append(candidates, alert.Candidate{
			Type:       alert.RuleEthicsApprovalPending,
			Title:      "Ethics approval pending",
			Message:    fmt.Sprintf("Ethics approval for %s has been pending for %d days.", s.HospitalName, daysPending),
			Severity:   deriveSeverity(alert.RuleEthicsApprovalPending, float64(daysPending), float64(thresholdDays)),
			HospitalID: &s.HospitalID,
			ProjectID:  &s.ProjectID,
			Metadata:   alert.EthicsPendingMeta{DaysPending: daysPending},
		})
	}

	return candidates, ruleErrs, nil
}
