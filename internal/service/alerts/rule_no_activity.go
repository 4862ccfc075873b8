// internal/service/alerts/rule_no_activity.go
package alerts

import (
	"context"
	"fmt"

	"studylink-service/internal/domain/alert"
)

// evalNoActivity flags active hospitals with no recorded activity for at
// least the configured number of days. Hospitals with no activity at all are
// measured from their creation time.
func evalNoActivity(ctx context.Context, e *Engine, cfg *alert.Configuration) ([]alert.Candidate, []RuleError, error) {
	thresholdDays, err := requireThreshold(cfg)
	if err != nil {
		return nil, nil, err
	}

	statuses, err := e.progress.ListActivity(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list hospital activity: %w", err)
	}

	now := e.now()
	candidates := []alert.Candidate{}

	for _, s := range statuses {
		s := s
		since := s.CreatedAt
		if s.LastActivityAt.Valid {
			since = s.LastActivityAt.Time
		}

		daysInactive := int(now.Sub(since).Hours() / 24)
		if daysInactive < thresholdDays {
			continue
		}

		candidates = append(candidates, alert.Candidate{
			Type:       alert.RuleNoActivity,
			Title:      "No recent activity",
			Message:    fmt.Sprintf("%s has had no recorded activity for %d days.", s.HospitalName, daysInactive),
			Severity:   deriveSeverity(alert.RuleNoActivity, float64(daysInactive), float64(thresholdDays)),
			HospitalID: &s.HospitalID,
			ProjectID:  &s.ProjectID,
			Metadata:   alert.InactivityMeta{DaysInactive: daysInactive},
		})
	}

	return candidates, nil, nil
}
