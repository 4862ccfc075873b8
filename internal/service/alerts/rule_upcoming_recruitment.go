// internal/service/alerts/rule_upcoming_recruitment.go
package alerts

import (
	"context"
	"fmt"
	"time"

	"studylink-service/internal/domain/alert"
)

// evalUpcomingRecruitment flags hospitals with a recruitment period starting
// within the configured number of days while the hospital is not yet active.
func evalUpcomingRecruitment(ctx context.Context, e *Engine, cfg *alert.Configuration) ([]alert.Candidate, []RuleError, error) {
	thresholdDays, err := requireThreshold(cfg)
	if err != nil {
		return nil, nil, err
	}

	windows, err := e.progress.ListUpcomingRecruitment(ctx, time.Duration(thresholdDays)*24*time.Hour)
	if err != nil {
		return nil, nil, fmt.Errorf("list upcoming recruitment periods: %w", err)
	}

	now := e.now()
	candidates := []alert.Candidate{}

	for _, w := range windows {
		w := w
		daysUntil := int(w.StartsAt.Sub(now).Hours() / 24)
		if daysUntil < 0 || daysUntil > thresholdDays {
			continue
		}

		// Closer starts escalate: magnitude grows as days-until shrinks.
		magnitude := float64(thresholdDays - daysUntil)

		candidates = append(candidates, alert.Candidate{
			Type:  alert.RuleUpcomingRecruitment,
			Title: "Recruitment period starting soon",
			Message: fmt.Sprintf("Recruitment at %s starts in %d days but the hospital is not active yet.",
				w.HospitalName, daysUntil),
			Severity:   deriveSeverity(alert.RuleUpcomingRecruitment, magnitude, float64(thresholdDays)),
			HospitalID: &w.HospitalID,
			ProjectID:  &w.ProjectID,
			Metadata:   alert.RecruitmentMeta{DaysUntilStart: daysUntil, StartsAt: w.StartsAt},
		})
	}

	return candidates, nil, nil
}
