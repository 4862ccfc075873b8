// internal/domain/alert/entity.go
package alert

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// RuleType identifies one violation-detection predicate.
type RuleType string

const (
	RuleEthicsApprovalPending RuleType = "ethics_approval_pending"
	RuleMissingDocumentation  RuleType = "missing_documentation"
	RuleUpcomingRecruitment   RuleType = "upcoming_recruitment_period"
	RuleNoActivity            RuleType = "no_activity_30_days"
	RuleLowCompletionRate     RuleType = "low_completion_rate"
)

// AllRuleTypes returns every rule type in evaluation order.
func AllRuleTypes() []RuleType {
	return []RuleType{
		RuleEthicsApprovalPending,
		RuleMissingDocumentation,
		RuleUpcomingRecruitment,
		RuleNoActivity,
		RuleLowCompletionRate,
	}
}

// IsValid reports whether rt is a known rule type.
func (rt RuleType) IsValid() bool {
	switch rt {
	case RuleEthicsApprovalPending, RuleMissingDocumentation,
		RuleUpcomingRecruitment, RuleNoActivity, RuleLowCompletionRate:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Escalate returns the next severity level up. Critical stays critical.
func (s Severity) Escalate() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	case SeverityHigh, SeverityCritical:
		return SeverityCritical
	}
	return s
}

// Alert is a persisted record of a detected rule violation. Alerts are
// append-only: they are resolved, never deleted.
type Alert struct {
	ID         int64           `json:"id" db:"id"`
	Type       RuleType        `json:"type" db:"type"`
	Title      string          `json:"title" db:"title"`
	Message    string          `json:"message" db:"message"`
	Severity   Severity        `json:"severity" db:"severity"`
	HospitalID *int64          `json:"hospital_id,omitempty" db:"hospital_id"`
	ProjectID  *int64          `json:"project_id,omitempty" db:"project_id"`
	Metadata   json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	IsResolved bool            `json:"is_resolved" db:"is_resolved"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	ResolvedAt sql.NullTime    `json:"resolved_at,omitempty" db:"resolved_at"`
}

// DedupKey returns the (type, hospital, project) tuple used to detect an
// already-tracked unresolved violation.
func (a *Alert) DedupKey() string {
	return dedupKey(a.Type, a.HospitalID, a.ProjectID)
}

// Candidate is a violation detected during rule evaluation that has not yet
// been checked against existing unresolved alerts.
type Candidate struct {
	Type       RuleType
	Title      string
	Message    string
	Severity   Severity
	HospitalID *int64
	ProjectID  *int64
	Metadata   Metadata
}

func (c *Candidate) DedupKey() string {
	return dedupKey(c.Type, c.HospitalID, c.ProjectID)
}

func dedupKey(rt RuleType, hospitalID, projectID *int64) string {
	h, p := int64(0), int64(0)
	if hospitalID != nil {
		h = *hospitalID
	}
	if projectID != nil {
		p = *projectID
	}
	return fmt.Sprintf("%s:%d:%d", rt, h, p)
}

// Metadata is the rule-specific payload attached to an alert. One concrete
// shape per rule type; stored as JSONB.
type Metadata interface {
	alertMetadata()
}

type EthicsPendingMeta struct {
	DaysPending int `json:"days_pending"`
}

type MissingDocsMeta struct {
	MissingDocuments []string `json:"missing_documents"`
}

type RecruitmentMeta struct {
	DaysUntilStart int       `json:"days_until_start"`
	StartsAt       time.Time `json:"starts_at"`
}

type InactivityMeta struct {
	DaysInactive int `json:"days_inactive"`
}

type CompletionMeta struct {
	Percentage float64 `json:"percentage"`
}

func (EthicsPendingMeta) alertMetadata() {}
func (MissingDocsMeta) alertMetadata()   {}
func (RecruitmentMeta) alertMetadata()   {}
func (InactivityMeta) alertMetadata()    {}
func (CompletionMeta) alertMetadata()    {}

// Configuration is the per-rule-type notification policy. At most one row
// exists per alert type; it is read on every rule evaluation.
type Configuration struct {
	AlertType         RuleType `json:"alert_type" db:"alert_type"`
	Enabled           bool     `json:"enabled" db:"enabled"`
	NotifyAdmin       bool     `json:"notify_admin" db:"notify_admin"`
	NotifyCoordinator bool     `json:"notify_coordinator" db:"notify_coordinator"`
	AutoSendEmail     bool     `json:"auto_send_email" db:"auto_send_email"`
	ThresholdValue    *int     `json:"threshold_value,omitempty" db:"threshold_value"`
	EmailTemplateID   *int64   `json:"email_template_id,omitempty" db:"email_template_id"`
}

// DTOs

type ListFilters struct {
	Type       *RuleType `form:"type"`
	Severity   *Severity `form:"severity"`
	Resolved   *bool     `form:"resolved"`
	HospitalID *int64    `form:"hospital_id"`
	ProjectID  *int64    `form:"project_id"`
	Page       int       `form:"page"`
	PageSize   int       `form:"page_size"`
}

type ListResponse struct {
	Alerts     []Alert `json:"alerts"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

type UpdateConfigurationRequest struct {
	Enabled           *bool  `json:"enabled"`
	NotifyAdmin       *bool  `json:"notify_admin"`
	NotifyCoordinator *bool  `json:"notify_coordinator"`
	AutoSendEmail     *bool  `json:"auto_send_email"`
	ThresholdValue    *int   `json:"threshold_value"`
	EmailTemplateID   *int64 `json:"email_template_id"`
}
