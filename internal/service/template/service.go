// internal/service/template/service.go
package template

import (
	"context"

	"studylink-service/internal/domain/communication"

	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, t *communication.Template) error
	FindByID(ctx context.Context, id int64) (*communication.Template, error)
	List(ctx context.Context, category string) ([]communication.Template, error)
	Update(ctx context.Context, t *communication.Template) error
	Delete(ctx context.Context, id int64) error
}

// Service owns the email/communication template catalog.
type Service struct {
	store    Store
	renderer *Renderer
	logger   *zap.Logger
}

func NewService(store Store, renderer *Renderer, logger *zap.Logger) *Service {
	return &Service{store: store, renderer: renderer, logger: logger}
}

func (s *Service) Create(ctx context.Context, req *communication.CreateTemplateRequest) (*communication.Template, error) {
	t := &communication.Template{
		Name:      req.Name,
		Subject:   req.Subject,
		Body:      req.Body,
		Variables: req.Variables,
		Category:  req.Category,
	}
	if t.Variables == nil {
		t.Variables = []string{}
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("template created", zap.Int64("template_id", t.ID), zap.String("name", t.Name))
	return t, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*communication.Template, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, category string) ([]communication.Template, error) {
	return s.store.List(ctx, category)
}

// Update applies a partial update. Template names are immutable; rules
// reference templates by id, so renames would only confuse the audit trail.
func (s *Service) Update(ctx context.Context, id int64, req *communication.UpdateTemplateRequest) (*communication.Template, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Subject != nil {
		t.Subject = *req.Subject
	}
	if req.Body != nil {
		t.Body = *req.Body
	}
	if req.Variables != nil {
		t.Variables = req.Variables
	}
	if req.Category != nil {
		t.Category = *req.Category
	}

	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("template deleted", zap.Int64("template_id", id))
	return nil
}

// Preview renders a template with sample variables without sending anything.
func (s *Service) Preview(ctx context.Context, id int64, variables map[string]string) (*Rendered, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rendered := s.renderer.Render(t, variables)
	return &rendered, nil
}
