// internal/repository/postgres/communication_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"studylink-service/internal/domain/communication"
	"studylink-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CommunicationRepository struct {
	db *pgxpool.Pool
}

func NewCommunicationRepository(db *pgxpool.Pool) *CommunicationRepository {
	return &CommunicationRepository{db: db}
}

// Create persists one sent communication.
func (r *CommunicationRepository) Create(ctx context.Context, c *communication.Communication) error {
	query := `
		INSERT INTO communications (id, sender_id, user_id, subject, body, hospital_id, project_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.SenderID, c.UserID, c.Subject, c.Body, c.HospitalID, c.ProjectID,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create communication: %w", err)
	}

	return nil
}

// ListForUser returns communications received by a user, newest first.
func (r *CommunicationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]communication.Communication, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, sender_id, user_id, subject, body, hospital_id, project_id, read_at, created_at
		FROM communications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list communications: %w", err)
	}
	defer rows.Close()

	comms := []communication.Communication{}
	for rows.Next() {
		var c communication.Communication
		err := rows.Scan(&c.ID, &c.SenderID, &c.UserID, &c.Subject, &c.Body,
			&c.HospitalID, &c.ProjectID, &c.ReadAt, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan communication: %w", err)
		}
		comms = append(comms, c)
	}

	return comms, rows.Err()
}

// MarkRead records the read receipt for one communication.
func (r *CommunicationRepository) MarkRead(ctx context.Context, id string, userID int64) error {
	query := `
		UPDATE communications
		SET read_at = $1
		WHERE id = $2 AND user_id = $3 AND read_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark communication read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.Wrap(xerrors.ErrNotFound, "communication not found or already read")
	}

	return nil
}
