// internal/service/alerts/severity.go
package alerts

import "studylink-service/internal/domain/alert"

// escalationPolicy is the per-rule-type severity derivation. The base level
// escalates one step once the measured magnitude reaches escalateAt times
// the configured threshold.
type escalationPolicy struct {
	base       alert.Severity
	escalateAt float64
}

var severityPolicies = map[alert.RuleType]escalationPolicy{
	alert.RuleEthicsApprovalPending: {base: alert.SeverityMedium, escalateAt: 2},
	alert.RuleMissingDocumentation:  {base: alert.SeverityMedium},
	alert.RuleUpcomingRecruitment:   {base: alert.SeverityMedium, escalateAt: 0.5},
	alert.RuleNoActivity:            {base: alert.SeverityMedium, escalateAt: 2},
	alert.RuleLowCompletionRate:     {base: alert.SeverityLow, escalateAt: 0.5},
}

// deriveSeverity computes the severity for one candidate. magnitude is the
// rule-specific distance past the threshold: days pending, days inactive,
// threshold minus days-until-start, or threshold minus percentage.
func deriveSeverity(rt alert.RuleType, magnitude, threshold float64) alert.Severity {
	p, ok := severityPolicies[rt]
	if !ok {
		return alert.SeverityMedium
	}

	sev := p.base
	if p.escalateAt > 0 && threshold > 0 && magnitude >= p.escalateAt*threshold {
		sev = sev.Escalate()
	}

	return sev
}
