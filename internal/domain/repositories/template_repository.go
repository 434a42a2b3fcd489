package repositories

import (
	"context"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
)

// TemplateRepository defines the interface for message template persistence.
type TemplateRepository interface {
	// Create inserts a template
	Create(ctx context.Context, template *entities.MessageTemplate) error

	// GetByID retrieves a template by ID
	GetByID(ctx context.Context, id string) (*entities.MessageTemplate, error)

	// ListByUser retrieves a user's templates, newest first
	ListByUser(ctx context.Context, userID string) ([]*entities.MessageTemplate, error)

	// Delete removes a template
	Delete(ctx context.Context, id string) error
}
