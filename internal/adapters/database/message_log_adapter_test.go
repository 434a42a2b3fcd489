package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

func newMockLogAdapter(t *testing.T) (*MessageLogAdapter, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "postgres")
	return &MessageLogAdapter{db: db}, mock
}

func TestMessageLogAdapter_Record(t *testing.T) {
	adapter, mock := newMockLogAdapter(t)

	now := time.Now().UTC()
	sid := "SM123"
	entry := &entities.MessageLogEntry{
		ID:                "log-1",
		UserID:            "user-1",
		RecipientPhone:    "+254712345678",
		RecipientName:     "Wanjiku",
		Message:           "Your coffee order has shipped",
		Status:            entities.MessageStatusSent,
		ProviderMessageID: &sid,
		SentAt:            &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	mock.ExpectExec("INSERT INTO sms_messages").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := adapter.Record(context.Background(), entry)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageLogAdapter_Record_FailedAttempt(t *testing.T) {
	adapter, mock := newMockLogAdapter(t)

	now := time.Now().UTC()
	errMsg := "The 'To' number is not a valid phone number."
	entry := &entities.MessageLogEntry{
		ID:             "log-2",
		UserID:         "user-1",
		RecipientPhone: "not-a-number",
		Message:        "Hello",
		Status:         entities.MessageStatusFailed,
		ErrorMessage:   &errMsg,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	mock.ExpectExec("INSERT INTO sms_messages").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := adapter.Record(context.Background(), entry)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageLogAdapter_Record_PersistenceError(t *testing.T) {
	adapter, mock := newMockLogAdapter(t)

	entry := &entities.MessageLogEntry{
		ID:             "log-3",
		UserID:         "user-1",
		RecipientPhone: "+254712345678",
		Message:        "Hello",
		Status:         entities.MessageStatusSent,
	}

	mock.ExpectExec("INSERT INTO sms_messages").
		WillReturnError(fmt.Errorf("connection refused"))

	err := adapter.Record(context.Background(), entry)
	assert.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePersistence))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageLogAdapter_ListByUser(t *testing.T) {
	adapter, mock := newMockLogAdapter(t)

	newer := time.Now().UTC()
	older := newer.Add(-time.Hour)
	sid := "SM123"

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "recipient_phone", "recipient_name", "message", "status",
		"twilio_message_id", "error_message", "sent_at", "created_at", "updated_at",
	}).
		AddRow("log-2", "user-1", "+254712345678", "Wanjiku", "Second", "sent", sid, nil, newer, newer, newer).
		AddRow("log-1", "user-1", "+254798765432", "Otieno", "First", "failed", nil, "Too many requests", nil, older, older)

	mock.ExpectQuery("SELECT (.+) FROM sms_messages").
		WithArgs("user-1").
		WillReturnRows(rows)

	entries, err := adapter.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "log-2", entries[0].ID)
	assert.Equal(t, entities.MessageStatusSent, entries[0].Status)
	require.NotNil(t, entries[0].ProviderMessageID)
	assert.Equal(t, "SM123", *entries[0].ProviderMessageID)

	assert.Equal(t, "log-1", entries[1].ID)
	assert.Equal(t, entities.MessageStatusFailed, entries[1].Status)
	require.NotNil(t, entries[1].ErrorMessage)
	assert.Nil(t, entries[1].SentAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}
