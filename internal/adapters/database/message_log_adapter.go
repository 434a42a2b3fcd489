package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/repositories"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

// MessageLogAdapter persists the send audit trail in Postgres.
type MessageLogAdapter struct {
	db *sqlx.DB
}

// NewMessageLogAdapter creates a new message log adapter.
func NewMessageLogAdapter(db *sqlx.DB) repositories.MessageLogRepository {
	return &MessageLogAdapter{db: db}
}

// Record writes one log entry for one send attempt. A failure here is a
// persistence error and must not be reported as a messaging failure.
func (a *MessageLogAdapter) Record(ctx context.Context, entry *entities.MessageLogEntry) error {
	if entry == nil {
		return apperrors.NewInternalError("log entry is nil", fmt.Errorf("log entry is nil"))
	}

	query := `
		INSERT INTO sms_messages (
			id, user_id, recipient_phone, recipient_name, message, status,
			twilio_message_id, error_message, sent_at, created_at, updated_at
		) VALUES (
			:id, :user_id, :recipient_phone, :recipient_name, :message, :status,
			:twilio_message_id, :error_message, :sent_at, :created_at, :updated_at
		)`

	if _, err := a.db.NamedExecContext(ctx, query, entry); err != nil {
		return apperrors.NewPersistenceError("failed to record message log entry", err)
	}

	return nil
}

// ListByUser retrieves a user's message history, newest first.
func (a *MessageLogAdapter) ListByUser(ctx context.Context, userID string) ([]*entities.MessageLogEntry, error) {
	query := `
		SELECT id, user_id, recipient_phone, recipient_name, message, status,
		       twilio_message_id, error_message, sent_at, created_at, updated_at
		FROM sms_messages
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var entries []*entities.MessageLogEntry
	if err := a.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, apperrors.NewPersistenceError("failed to list message history", err)
	}

	return entries, nil
}
