// internal/repository/postgres/template_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"studylink-service/internal/domain/communication"
	"studylink-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type TemplateRepository struct {
	db *pgxpool.Pool
}

func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create inserts a new template. Name uniqueness is enforced by the table's
// unique constraint and surfaced as ErrDuplicate.
func (r *TemplateRepository) Create(ctx context.Context, t *communication.Template) error {
	query := `
		INSERT INTO communication_templates (name, subject, body, variables, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, usage_count, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		t.Name, t.Subject, t.Body, pq.Array(t.Variables), t.Category,
	).Scan(&t.ID, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt)
	if isUniqueViolation(err) {
		return xerrors.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

// FindByID retrieves one template.
func (r *TemplateRepository) FindByID(ctx context.Context, id int64) (*communication.Template, error) {
	query := `
		SELECT id, name, subject, body, variables, category, usage_count, created_at, updated_at
		FROM communication_templates
		WHERE id = $1
	`

	var t communication.Template
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Subject, &t.Body, pq.Array(&t.Variables),
		&t.Category, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find template: %w", err)
	}

	return &t, nil
}

// List returns all templates, optionally filtered by category.
func (r *TemplateRepository) List(ctx context.Context, category string) ([]communication.Template, error) {
	query := `
		SELECT id, name, subject, body, variables, category, usage_count, created_at, updated_at
		FROM communication_templates
		WHERE ($1 = '' OR category = $1)
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []communication.Template{}
	for rows.Next() {
		var t communication.Template
		err := rows.Scan(
			&t.ID, &t.Name, &t.Subject, &t.Body, pq.Array(&t.Variables),
			&t.Category, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// Update applies a partial update to one template.
func (r *TemplateRepository) Update(ctx context.Context, t *communication.Template) error {
	query := `
		UPDATE communication_templates
		SET subject = $2, body = $3, variables = $4, category = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, t.ID, t.Subject, t.Body, pq.Array(t.Variables), t.Category)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// Delete removes a template.
func (r *TemplateRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM communication_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// IncrementUsage bumps usage_count after a dispatch rendered the template.
func (r *TemplateRepository) IncrementUsage(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE communication_templates SET usage_count = usage_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment template usage: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
