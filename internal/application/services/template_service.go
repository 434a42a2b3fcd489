package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/repositories"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

// TemplateService manages reusable message templates.
type TemplateService struct {
	repo repositories.TemplateRepository
}

// NewTemplateService creates a new template service.
func NewTemplateService(repo repositories.TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

// Create stores a template. Variables are extracted from the body; any
// caller-supplied list is ignored.
func (s *TemplateService) Create(ctx context.Context, template *entities.MessageTemplate) error {
	if template.Name == "" {
		return apperrors.NewValidationError("template name is required")
	}
	if template.Body == "" {
		return apperrors.NewValidationError("template content is required")
	}

	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	template.Variables = entities.ExtractTemplateVariables(template.Body)
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	return s.repo.Create(ctx, template)
}

// List returns a user's templates, newest first.
func (s *TemplateService) List(ctx context.Context, userID string) ([]*entities.MessageTemplate, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes a template after verifying the caller owns it.
func (s *TemplateService) Delete(ctx context.Context, userID, templateID string) error {
	template, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return err
	}
	if template.UserID != userID {
		return apperrors.NewNotFoundError("template not found")
	}
	return s.repo.Delete(ctx, templateID)
}

// Render substitutes variable values into a template body. Placeholders with
// no value provided are left intact so the omission is visible in the message.
func (s *TemplateService) Render(body string, values map[string]string) string {
	result := body
	for name, value := range values {
		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}
	return result
}

// RenderByID loads a template the caller owns and renders it.
func (s *TemplateService) RenderByID(ctx context.Context, userID, templateID string, values map[string]string) (string, error) {
	template, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return "", err
	}
	if template.UserID != userID {
		return "", apperrors.NewNotFoundError("template not found")
	}
	return s.Render(template.Body, values), nil
}
