// internal/service/alertconfig/service.go
package alertconfig

import (
	"context"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/domain/communication"
	"studylink-service/internal/pkg/xerrors"

	"go.uber.org/zap"
)

type Store interface {
	Get(ctx context.Context, ruleType alert.RuleType) (*alert.Configuration, error)
	List(ctx context.Context) ([]alert.Configuration, error)
	Update(ctx context.Context, cfg *alert.Configuration) error
}

// TemplateStore verifies that a referenced email template exists.
type TemplateStore interface {
	FindByID(ctx context.Context, id int64) (*communication.Template, error)
}

// Service manages the per-rule-type alert policies.
type Service struct {
	store     Store
	templates TemplateStore
	logger    *zap.Logger
}

func NewService(store Store, templates TemplateStore, logger *zap.Logger) *Service {
	return &Service{store: store, templates: templates, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]alert.Configuration, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, ruleType alert.RuleType) (*alert.Configuration, error) {
	if !ruleType.IsValid() {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "unknown alert type")
	}
	return s.store.Get(ctx, ruleType)
}

// Update applies a partial update to one rule's policy. The threshold must
// stay positive and a referenced email template must exist.
func (s *Service) Update(ctx context.Context, ruleType alert.RuleType, req *alert.UpdateConfigurationRequest) (*alert.Configuration, error) {
	if !ruleType.IsValid() {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "unknown alert type")
	}

	cfg, err := s.store.Get(ctx, ruleType)
	if err != nil {
		return nil, err
	}

	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.NotifyAdmin != nil {
		cfg.NotifyAdmin = *req.NotifyAdmin
	}
	if req.NotifyCoordinator != nil {
		cfg.NotifyCoordinator = *req.NotifyCoordinator
	}
	if req.AutoSendEmail != nil {
		cfg.AutoSendEmail = *req.AutoSendEmail
	}
	if req.ThresholdValue != nil {
		if *req.ThresholdValue <= 0 {
			return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "threshold_value must be positive")
		}
		cfg.ThresholdValue = req.ThresholdValue
	}
	if req.EmailTemplateID != nil {
		if _, err := s.templates.FindByID(ctx, *req.EmailTemplateID); err != nil {
			return nil, xerrors.Wrap(err, "email template")
		}
		cfg.EmailTemplateID = req.EmailTemplateID
	}

	if err := s.store.Update(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("alert configuration updated",
		zap.String("alert_type", string(ruleType)),
		zap.Bool("enabled", cfg.Enabled),
	)
	return cfg, nil
}
