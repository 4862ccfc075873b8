// internal/service/alerts/rule_missing_documentation.go
package alerts

import (
	"context"
	"fmt"
	"strings"

	"studylink-service/internal/domain/alert"
)

// evalMissingDocumentation flags hospitals whose required document set is
// incomplete. This is a boolean check: no threshold applies.
func evalMissingDocumentation(ctx context.Context, e *Engine, cfg *alert.Configuration) ([]alert.Candidate, []RuleError, error) {
	statuses, err := e.progress.ListMissingDocumentation(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list missing documentation: %w", err)
	}

	candidates := []alert.Candidate{}
	ruleErrs := []RuleError{}

	for _, s := range statuses {
		s := s
		if len(s.MissingDocuments) == 0 {
			ruleErrs = append(ruleErrs, RuleError{
				HospitalID: &s.HospitalID,
				ProjectID:  &s.ProjectID,
				Err:        fmt.Errorf("hospital %d: reported as missing documentation but no documents listed", s.HospitalID),
			})
			continue
		}

		candidates = append(candidates, alert.Candidate{
			Type:  alert.RuleMissingDocumentation,
			Title: "Missing documentation",
			Message: fmt.Sprintf("%s is missing required documentation: %s.",
				s.HospitalName, strings.Join(s.MissingDocuments, ", ")),
			Severity:   deriveSeverity(alert.RuleMissingDocumentation, 0, 0),
			HospitalID: &s.HospitalID,
			ProjectID:  &s.ProjectID,
			Metadata:   alert.MissingDocsMeta{MissingDocuments: s.MissingDocuments},
		})
	}

	return candidates, ruleErrs, nil
}
