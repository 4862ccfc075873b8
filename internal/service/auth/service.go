// internal/service/auth/service.go
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"studylink-service/internal/domain/user"
	"studylink-service/internal/pkg/jwt"
	"studylink-service/internal/pkg/ratelimit"
	"studylink-service/internal/pkg/xerrors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	loginMaxAttempts = 5
	loginWindow      = 15 * time.Minute
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, id int64) (*user.User, error)
}

// Service authenticates users and issues access tokens.
type Service struct {
	users   UserStore
	tokens  *jwt.Manager
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

func NewService(users UserStore, tokens *jwt.Manager, limiter *ratelimit.Limiter, logger *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, limiter: limiter, logger: logger}
}

// Login verifies credentials and returns a signed token. Attempts are rate
// limited per email; a limiter outage fails open so redis downtime does not
// lock everyone out.
func (s *Service) Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	limitKey := "login:" + email

	allowed, _, err := s.limiter.Allow(ctx, limitKey, loginMaxAttempts, loginWindow)
	if err != nil {
		s.logger.Warn("login rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		return nil, xerrors.Wrap(xerrors.ErrRateLimited, "too many login attempts")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid credentials")
	}

	if err := s.limiter.Reset(ctx, limitKey); err != nil {
		s.logger.Warn("login rate limiter reset failed", zap.Error(err))
	}

	token, err := s.tokens.Generate(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return &user.LoginResponse{Token: token, User: *u}, nil
}

// CurrentUser loads the authenticated user's profile.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "account deactivated")
	}
	return u, nil
}
