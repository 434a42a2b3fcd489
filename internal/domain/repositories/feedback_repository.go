package repositories

import (
	"context"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
)

// FeedbackRepository defines the interface for feedback persistence.
type FeedbackRepository interface {
	// Create inserts a feedback record
	Create(ctx context.Context, feedback *entities.Feedback) error

	// ListByUser retrieves all feedback owned by a user, newest first
	ListByUser(ctx context.Context, userID string) ([]*entities.Feedback, error)
}
