// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"studylink-service/internal/domain/user"
	"studylink-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, full_name, role, hospital_id, password_hash, is_active, created_at`

// FindByEmail retrieves a user by email for login.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	var u user.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.HospitalID,
		&u.PasswordHash, &u.IsActive, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &u, nil
}

// FindByID retrieves a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	var u user.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.HospitalID,
		&u.PasswordHash, &u.IsActive, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &u, nil
}

// ListActiveAdmins returns every active administrator.
func (r *UserRepository) ListActiveAdmins(ctx context.Context) ([]user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 AND is_active = true`, userColumns)

	return r.queryUsers(ctx, query, user.RoleAdmin)
}

// ListCoordinators returns the active coordinators attached to a hospital,
// or to any hospital of the given project when hospitalID is nil.
func (r *UserRepository) ListCoordinators(ctx context.Context, hospitalID, projectID *int64) ([]user.User, error) {
	switch {
	case hospitalID != nil:
		query := fmt.Sprintf(
			`SELECT %s FROM users WHERE role = $1 AND is_active = true AND hospital_id = $2`, userColumns)
		return r.queryUsers(ctx, query, user.RoleCoordinator, *hospitalID)
	case projectID != nil:
		query := fmt.Sprintf(`
			SELECT %s FROM users
			WHERE role = $1 AND is_active = true
			  AND hospital_id IN (SELECT id FROM hospitals WHERE project_id = $2)`, userColumns)
		return r.queryUsers(ctx, query, user.RoleCoordinator, *projectID)
	}

	return []user.User{}, nil
}

// FindActiveByIDs resolves an explicit recipient list, dropping unknown or
// inactive ids silently.
func (r *UserRepository) FindActiveByIDs(ctx context.Context, ids []int64) ([]user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE is_active = true AND id = ANY($1)`, userColumns)

	return r.queryUsers(ctx, query, ids)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]user.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		var u user.User
		err := rows.Scan(
			&u.ID, &u.Email, &u.FullName, &u.Role, &u.HospitalID,
			&u.PasswordHash, &u.IsActive, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
