// internal/repository/postgres/alert_config_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlertConfigRepository reads the per-rule-type notification policy. Rows are
// seeded at deployment and mutated only by administrators; the pipeline
// treats them as read-only during a run.
type AlertConfigRepository struct {
	db *pgxpool.Pool
}

func NewAlertConfigRepository(db *pgxpool.Pool) *AlertConfigRepository {
	return &AlertConfigRepository{db: db}
}

// Get retrieves the configuration for one alert type.
func (r *AlertConfigRepository) Get(ctx context.Context, ruleType alert.RuleType) (*alert.Configuration, error) {
	query := `
		SELECT alert_type, enabled, notify_admin, notify_coordinator, auto_send_email, threshold_value, email_template_id
		FROM alert_configurations
		WHERE alert_type = $1
	`

	var cfg alert.Configuration
	err := r.db.QueryRow(ctx, query, ruleType).Scan(
		&cfg.AlertType, &cfg.Enabled, &cfg.NotifyAdmin, &cfg.NotifyCoordinator,
		&cfg.AutoSendEmail, &cfg.ThresholdValue, &cfg.EmailTemplateID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert configuration: %w", err)
	}

	return &cfg, nil
}

// List returns all configurations.
func (r *AlertConfigRepository) List(ctx context.Context) ([]alert.Configuration, error) {
	query := `
		SELECT alert_type, enabled, notify_admin, notify_coordinator, auto_send_email, threshold_value, email_template_id
		FROM alert_configurations
		ORDER BY alert_type
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert configurations: %w", err)
	}
	defer rows.Close()

	configs := []alert.Configuration{}
	for rows.Next() {
		var cfg alert.Configuration
		err := rows.Scan(
			&cfg.AlertType, &cfg.Enabled, &cfg.NotifyAdmin, &cfg.NotifyCoordinator,
			&cfg.AutoSendEmail, &cfg.ThresholdValue, &cfg.EmailTemplateID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert configuration: %w", err)
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// Update applies an administrator change to one configuration row.
func (r *AlertConfigRepository) Update(ctx context.Context, cfg *alert.Configuration) error {
	query := `
		UPDATE alert_configurations
		SET enabled = $2, notify_admin = $3, notify_coordinator = $4,
		    auto_send_email = $5, threshold_value = $6, email_template_id = $7
		WHERE alert_type = $1
	`

	result, err := r.db.Exec(ctx, query,
		cfg.AlertType, cfg.Enabled, cfg.NotifyAdmin, cfg.NotifyCoordinator,
		cfg.AutoSendEmail, cfg.ThresholdValue, cfg.EmailTemplateID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert configuration: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}
