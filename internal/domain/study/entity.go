// internal/domain/study/entity.go
package study

import (
	"database/sql"
	"time"
)

// Aggregate rows the alert rules evaluate over. These are read-only
// projections of hospital/project operational state; the pipeline never
// mutates them.

// EthicsStatus is one hospital with an ethics submission that has not been
// approved yet.
type EthicsStatus struct {
	HospitalID   int64
	ProjectID    int64
	HospitalName string
	SubmittedAt  time.Time
}

// DocumentationStatus is one hospital/project with required documentation
// absent. The repository returns only violating rows.
type DocumentationStatus struct {
	HospitalID       int64
	ProjectID        int64
	HospitalName     string
	MissingDocuments []string
}

// RecruitmentWindow is an upcoming recruitment period for a hospital that is
// not yet active.
type RecruitmentWindow struct {
	HospitalID   int64
	ProjectID    int64
	HospitalName string
	StartsAt     time.Time
}

// ActivityStatus is the most recent recorded activity for a hospital.
// LastActivityAt is null when no activity was ever recorded; in that case
// the hospital's creation time bounds the inactivity window.
type ActivityStatus struct {
	HospitalID     int64
	ProjectID      int64
	HospitalName   string
	LastActivityAt sql.NullTime
	CreatedAt      time.Time
}

// CompletionStatus is the current completion percentage for a hospital.
type CompletionStatus struct {
	HospitalID   int64
	ProjectID    int64
	HospitalName string
	Percentage   float64
}
