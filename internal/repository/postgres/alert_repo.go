// internal/repository/postgres/alert_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlertRepository persists generated alerts. The table carries a partial
// unique index on (type, coalesce(hospital_id,0), coalesce(project_id,0))
// WHERE NOT is_resolved, which is the correctness backstop for deduplication
// under concurrent runs; Create relies on it via ON CONFLICT DO NOTHING.
type AlertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts a new alert. Returns created=false when an unresolved alert
// with the same dedup key already exists (lost race against another run).
func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) (bool, error) {
	query := `
		INSERT INTO alerts (type, title, message, severity, hospital_id, project_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (type, COALESCE(hospital_id, 0), COALESCE(project_id, 0))
			WHERE NOT is_resolved
			DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		a.Type, a.Title, a.Message, a.Severity, a.HospitalID, a.ProjectID, a.Metadata,
	).Scan(&a.ID, &a.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create alert: %w", err)
	}

	return true, nil
}

// ListUnresolvedByType returns all unresolved alerts of one rule type. The
// deduplicator and the resolve-on-clear pass work off this set.
func (r *AlertRepository) ListUnresolvedByType(ctx context.Context, ruleType alert.RuleType) ([]alert.Alert, error) {
	query := `
		SELECT id, type, title, message, severity, hospital_id, project_id, metadata, is_resolved, created_at, resolved_at
		FROM alerts
		WHERE type = $1 AND is_resolved = false
	`

	rows, err := r.db.Query(ctx, query, ruleType)
	if err != nil {
		return nil, fmt.Errorf("failed to list unresolved alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// Resolve marks an alert as resolved. Resolving an already-resolved alert is
// a no-op.
func (r *AlertRepository) Resolve(ctx context.Context, id int64) error {
	query := `
		UPDATE alerts
		SET is_resolved = true, resolved_at = $1
		WHERE id = $2 AND is_resolved = false
	`

	if _, err := r.db.Exec(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}

	return nil
}

// FindByID retrieves a single alert.
func (r *AlertRepository) FindByID(ctx context.Context, id int64) (*alert.Alert, error) {
	query := `
		SELECT id, type, title, message, severity, hospital_id, project_id, metadata, is_resolved, created_at, resolved_at
		FROM alerts
		WHERE id = $1
	`

	var a alert.Alert
	var metadata []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Type, &a.Title, &a.Message, &a.Severity,
		&a.HospitalID, &a.ProjectID, &metadata, &a.IsResolved, &a.CreatedAt, &a.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find alert: %w", err)
	}
	a.Metadata = json.RawMessage(metadata)

	return &a, nil
}

// List returns a filtered, paginated page of alerts.
func (r *AlertRepository) List(ctx context.Context, filters *alert.ListFilters) ([]alert.Alert, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filters.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, *filters.Type)
		argPos++
	}
	if filters.Severity != nil {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argPos))
		args = append(args, *filters.Severity)
		argPos++
	}
	if filters.Resolved != nil {
		conditions = append(conditions, fmt.Sprintf("is_resolved = $%d", argPos))
		args = append(args, *filters.Resolved)
		argPos++
	}
	if filters.HospitalID != nil {
		conditions = append(conditions, fmt.Sprintf("hospital_id = $%d", argPos))
		args = append(args, *filters.HospitalID)
		argPos++
	}
	if filters.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, *filters.ProjectID)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM alerts WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	query := fmt.Sprintf(`
		SELECT id, type, title, message, severity, hospital_id, project_id, metadata, is_resolved, created_at, resolved_at
		FROM alerts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)

	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts, err := scanAlerts(rows)
	if err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

func scanAlerts(rows pgx.Rows) ([]alert.Alert, error) {
	alerts := []alert.Alert{}
	for rows.Next() {
		var a alert.Alert
		var metadata []byte

		err := rows.Scan(
			&a.ID, &a.Type, &a.Title, &a.Message, &a.Severity,
			&a.HospitalID, &a.ProjectID, &metadata, &a.IsResolved, &a.CreatedAt, &a.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Metadata = json.RawMessage(metadata)

		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}
