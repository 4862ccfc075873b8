// internal/repository/postgres/progress_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"studylink-service/internal/domain/study"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// ProgressRepository aggregates hospital/project operational state for rule
// evaluation. All queries are read-only projections; the alert pipeline never
// writes through this repository.
type ProgressRepository struct {
	db *pgxpool.Pool
}

func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ListEthicsPending returns hospitals whose ethics submission has not been
// approved yet.
func (r *ProgressRepository) ListEthicsPending(ctx context.Context) ([]study.EthicsStatus, error) {
	query := `
		SELECT id, project_id, name, ethics_submitted_at
		FROM hospitals
		WHERE ethics_submitted_at IS NOT NULL AND ethics_approved_at IS NULL
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ethics-pending hospitals: %w", err)
	}
	defer rows.Close()

	statuses := []study.EthicsStatus{}
	for rows.Next() {
		var s study.EthicsStatus
		if err := rows.Scan(&s.HospitalID, &s.ProjectID, &s.HospitalName, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ethics status: %w", err)
		}
		statuses = append(statuses, s)
	}

	return statuses, rows.Err()
}

// ListMissingDocumentation returns hospitals whose required document set is
// incomplete, together with the missing document names.
func (r *ProgressRepository) ListMissingDocumentation(ctx context.Context) ([]study.DocumentationStatus, error) {
	query := `
		SELECT h.id, h.project_id, h.name,
		       ARRAY(
		           SELECT rd.name FROM required_documents rd
		           WHERE rd.project_id = h.project_id
		             AND NOT EXISTS (
		                 SELECT 1 FROM hospital_documents hd
		                 WHERE hd.hospital_id = h.id AND hd.document_name = rd.name
		             )
		       ) AS missing
		FROM hospitals h
		WHERE EXISTS (
		    SELECT 1 FROM required_documents rd
		    WHERE rd.project_id = h.project_id
		      AND NOT EXISTS (
		          SELECT 1 FROM hospital_documents hd
		          WHERE hd.hospital_id = h.id AND hd.document_name = rd.name
		      )
		)
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list missing documentation: %w", err)
	}
	defer rows.Close()

	statuses := []study.DocumentationStatus{}
	for rows.Next() {
		var s study.DocumentationStatus
		if err := rows.Scan(&s.HospitalID, &s.ProjectID, &s.HospitalName, pq.Array(&s.MissingDocuments)); err != nil {
			return nil, fmt.Errorf("failed to scan documentation status: %w", err)
		}
		statuses = append(statuses, s)
	}

	return statuses, rows.Err()
}

// ListUpcomingRecruitment returns recruitment periods starting within the
// window for hospitals that are not yet active.
func (r *ProgressRepository) ListUpcomingRecruitment(ctx context.Context, within time.Duration) ([]study.RecruitmentWindow, error) {
	query := `
		SELECT h.id, h.project_id, h.name, rp.starts_at
		FROM recruitment_periods rp
		JOIN hospitals h ON h.id = rp.hospital_id
		WHERE h.status <> 'active'
		  AND rp.starts_at > NOW()
		  AND rp.starts_at <= NOW() + $1::interval
	`

	rows, err := r.db.Query(ctx, query, fmt.Sprintf("%d seconds", int(within.Seconds())))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming recruitment periods: %w", err)
	}
	defer rows.Close()

	windows := []study.RecruitmentWindow{}
	for rows.Next() {
		var w study.RecruitmentWindow
		if err := rows.Scan(&w.HospitalID, &w.ProjectID, &w.HospitalName, &w.StartsAt); err != nil {
			return nil, fmt.Errorf("failed to scan recruitment window: %w", err)
		}
		windows = append(windows, w)
	}

	return windows, rows.Err()
}

// ListActivity returns the last recorded activity per hospital.
func (r *ProgressRepository) ListActivity(ctx context.Context) ([]study.ActivityStatus, error) {
	query := `
		SELECT h.id, h.project_id, h.name,
		       (SELECT MAX(a.recorded_at) FROM activities a WHERE a.hospital_id = h.id),
		       h.created_at
		FROM hospitals h
		WHERE h.status = 'active'
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hospital activity: %w", err)
	}
	defer rows.Close()

	statuses := []study.ActivityStatus{}
	for rows.Next() {
		var s study.ActivityStatus
		if err := rows.Scan(&s.HospitalID, &s.ProjectID, &s.HospitalName, &s.LastActivityAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity status: %w", err)
		}
		statuses = append(statuses, s)
	}

	return statuses, rows.Err()
}

// ListCompletionRates returns the completion percentage per active hospital.
func (r *ProgressRepository) ListCompletionRates(ctx context.Context) ([]study.CompletionStatus, error) {
	query := `
		SELECT h.id, h.project_id, h.name,
		       CASE WHEN h.target_enrollment > 0
		            THEN 100.0 * h.current_enrollment / h.target_enrollment
		            ELSE 0 END AS pct
		FROM hospitals h
		WHERE h.status = 'active' AND h.target_enrollment > 0
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list completion rates: %w", err)
	}
	defer rows.Close()

	statuses := []study.CompletionStatus{}
	for rows.Next() {
		var s study.CompletionStatus
		if err := rows.Scan(&s.HospitalID, &s.ProjectID, &s.HospitalName, &s.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan completion status: %w", err)
		}
		statuses = append(statuses, s)
	}

	return statuses, rows.Err()
}
