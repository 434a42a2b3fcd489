package repositories

import (
	"context"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
)

// MessageLogRepository persists the audit trail of send attempts.
type MessageLogRepository interface {
	// Record writes exactly one log entry for one send attempt. Failures
	// surface as persistence errors, distinct from messaging failures.
	Record(ctx context.Context, entry *entities.MessageLogEntry) error

	// ListByUser retrieves a user's message history, newest first
	ListByUser(ctx context.Context, userID string) ([]*entities.MessageLogEntry, error)
}
