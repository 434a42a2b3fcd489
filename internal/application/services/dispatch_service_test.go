package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/messaging"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

type fakeSender struct {
	calls   []string
	failFor map[string]error
}

func (f *fakeSender) Send(ctx context.Context, to, body string) (*messaging.SendReceipt, error) {
	f.calls = append(f.calls, to)
	if err, ok := f.failFor[to]; ok {
		return nil, err
	}
	return &messaging.SendReceipt{
		SID:    fmt.Sprintf("SM%d", len(f.calls)),
		Status: "queued",
	}, nil
}

type fakeLogRepo struct {
	entries   []*entities.MessageLogEntry
	recordErr error
}

func (f *fakeLogRepo) Record(ctx context.Context, entry *entities.MessageLogEntry) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLogRepo) ListByUser(ctx context.Context, userID string) ([]*entities.MessageLogEntry, error) {
	return f.entries, nil
}

func TestDispatchService_Dispatch_EmptyList(t *testing.T) {
	sender := &fakeSender{}
	logRepo := &fakeLogRepo{}
	svc := NewDispatchService(sender, logRepo)

	result, err := svc.Dispatch(context.Background(), "user-1", nil)
	require.NoError(t, err)

	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 0, result.TotalSent)
	assert.Equal(t, 0, result.TotalFailed)
	assert.Empty(t, sender.calls, "empty dispatch must not touch the provider")
	assert.Empty(t, logRepo.entries, "empty dispatch must not write log entries")
}

func TestDispatchService_Dispatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	sender := &fakeSender{
		failFor: map[string]error{
			"+254722000002": apperrors.NewGatewayError("The 'To' number is not a valid phone number.", 400, nil),
		},
	}
	logRepo := &fakeLogRepo{}
	svc := NewDispatchService(sender, logRepo)

	recipients := []entities.Recipient{
		{Phone: "+254722000001", DisplayName: "Wanjiku", Message: "First"},
		{Phone: "+254722000002", DisplayName: "Otieno", Message: "Second"},
		{Phone: "+254722000003", DisplayName: "Achieng", Message: "Third"},
	}

	result, err := svc.Dispatch(context.Background(), "user-1", recipients)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, "+254722000001", result.Outcomes[0].Phone)
	assert.Equal(t, "+254722000002", result.Outcomes[1].Phone)
	assert.Equal(t, "+254722000003", result.Outcomes[2].Phone)

	assert.True(t, result.Outcomes[0].Success)
	assert.False(t, result.Outcomes[1].Success)
	assert.True(t, result.Outcomes[2].Success)
	assert.Equal(t, "The 'To' number is not a valid phone number.", result.Outcomes[1].Error)

	assert.Equal(t, 2, result.TotalSent)
	assert.Equal(t, 1, result.TotalFailed)
	assert.Equal(t, len(recipients), result.TotalSent+result.TotalFailed)

	// Exactly one log entry per attempt, failures included.
	require.Len(t, logRepo.entries, 3)
	assert.Equal(t, entities.MessageStatusSent, logRepo.entries[0].Status)
	assert.Equal(t, entities.MessageStatusFailed, logRepo.entries[1].Status)
	require.NotNil(t, logRepo.entries[1].ErrorMessage)
	assert.Nil(t, logRepo.entries[1].SentAt)
	require.NotNil(t, logRepo.entries[0].ProviderMessageID)
	assert.NotNil(t, logRepo.entries[0].SentAt)
}

func TestDispatchService_Dispatch_NormalizesPhones(t *testing.T) {
	sender := &fakeSender{}
	logRepo := &fakeLogRepo{}
	svc := NewDispatchService(sender, logRepo)

	recipients := []entities.Recipient{
		{Phone: "+254 722-000 001", Message: "Hello"},
	}

	result, err := svc.Dispatch(context.Background(), "user-1", recipients)
	require.NoError(t, err)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, "+254722000001", sender.calls[0], "provider call uses normalized number")
	assert.Equal(t, "+254 722-000 001", result.Outcomes[0].Phone, "outcome echoes the caller's original number")
	assert.Equal(t, "+254722000001", logRepo.entries[0].RecipientPhone)
}

func TestDispatchService_Dispatch_LogFailureDoesNotFlipOutcome(t *testing.T) {
	sender := &fakeSender{}
	logRepo := &fakeLogRepo{
		recordErr: apperrors.NewPersistenceError("failed to record message log entry", fmt.Errorf("connection refused")),
	}
	svc := NewDispatchService(sender, logRepo)

	result, err := svc.Dispatch(context.Background(), "user-1", []entities.Recipient{
		{Phone: "+254722000001", Message: "Hello"},
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Success, "a persistence failure must not mask a successful send")
	assert.NotEmpty(t, result.Outcomes[0].LogError)
	assert.Empty(t, result.Outcomes[0].Error)
	assert.Equal(t, 1, result.TotalSent)
}

func TestDispatchService_SendSingle(t *testing.T) {
	sender := &fakeSender{}
	logRepo := &fakeLogRepo{}
	svc := NewDispatchService(sender, logRepo)

	outcome, err := svc.SendSingle(context.Background(), "user-1", entities.Recipient{
		Phone:   "+254722000001",
		Message: "Your order shipped",
	})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, "SM1", outcome.ProviderMessageID)
	assert.Equal(t, "queued", outcome.ProviderStatus)
	require.Len(t, logRepo.entries, 1)
}

func TestDispatchService_SendSingle_Validation(t *testing.T) {
	sender := &fakeSender{}
	logRepo := &fakeLogRepo{}
	svc := NewDispatchService(sender, logRepo)

	_, err := svc.SendSingle(context.Background(), "user-1", entities.Recipient{Message: "Hello"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.SendSingle(context.Background(), "user-1", entities.Recipient{Phone: "+254722000001"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	assert.Empty(t, sender.calls)
	assert.Empty(t, logRepo.entries)
}
