package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/providers"
	"github.com/brewline/coffeedesk/backend/internal/domain/repositories"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/messaging"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/observability"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
	"github.com/brewline/coffeedesk/backend/pkg/utils"
)

// MessageSender performs a single outbound send. It never retries.
type MessageSender interface {
	Send(ctx context.Context, to, body string) (*messaging.SendReceipt, error)
}

// DispatchService coordinates sends across one or many recipients, writing
// one log entry per attempt.
type DispatchService struct {
	sender  MessageSender
	logRepo repositories.MessageLogRepository
	bus     providers.EventBus
	metrics *observability.Metrics
}

// NewDispatchService creates a new dispatch service.
func NewDispatchService(sender MessageSender, logRepo repositories.MessageLogRepository) *DispatchService {
	return &DispatchService{
		sender:  sender,
		logRepo: logRepo,
	}
}

// SetEventBus sets the event bus for publishing send outcomes
func (s *DispatchService) SetEventBus(bus providers.EventBus) {
	s.bus = bus
}

// SetMetrics sets the metrics recorder
func (s *DispatchService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// SendSingle dispatches one message and reports its outcome.
func (s *DispatchService) SendSingle(ctx context.Context, userID string, recipient entities.Recipient) (*entities.SendOutcome, error) {
	if recipient.Phone == "" {
		return nil, apperrors.NewValidationError("recipient phone is required")
	}
	if recipient.Message == "" {
		return nil, apperrors.NewValidationError("message body is required")
	}

	outcome := s.dispatchOne(ctx, userID, recipient)
	return &outcome, nil
}

// Dispatch sends to each recipient in order. One recipient's failure never
// stops the rest; outcomes come back in input order and TotalSent+TotalFailed
// always equals the recipient count. An empty list returns an empty result
// without touching the provider.
func (s *DispatchService) Dispatch(ctx context.Context, userID string, recipients []entities.Recipient) (*entities.BulkResult, error) {
	result := &entities.BulkResult{
		Outcomes: make([]entities.SendOutcome, 0, len(recipients)),
	}
	if len(recipients) == 0 {
		return result, nil
	}

	if s.metrics != nil {
		observability.RecordDispatchMetric(ctx, s.metrics, len(recipients))
	}

	for _, recipient := range recipients {
		outcome := s.dispatchOne(ctx, userID, recipient)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Success {
			result.TotalSent++
		} else {
			result.TotalFailed++
		}
	}

	return result, nil
}

// dispatchOne makes exactly one provider attempt and writes exactly one log
// entry for it. A log write failure is reported on the outcome separately
// and never flips the send result.
func (s *DispatchService) dispatchOne(ctx context.Context, userID string, recipient entities.Recipient) entities.SendOutcome {
	phone := utils.NormalizePhone(recipient.Phone)

	outcome := entities.SendOutcome{
		Phone:       recipient.Phone,
		DisplayName: recipient.DisplayName,
	}

	now := time.Now().UTC()
	entry := &entities.MessageLogEntry{
		ID:             uuid.New().String(),
		UserID:         userID,
		RecipientPhone: phone,
		RecipientName:  recipient.DisplayName,
		Message:        recipient.Message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	start := time.Now()
	receipt, err := s.sender.Send(ctx, phone, recipient.Message)
	elapsed := time.Since(start)

	if err != nil {
		outcome.Success = false
		outcome.Error = sendErrorMessage(err)
		entry.Status = entities.MessageStatusFailed
		entry.ErrorMessage = &outcome.Error
	} else {
		outcome.Success = true
		outcome.ProviderMessageID = receipt.SID
		outcome.ProviderStatus = receipt.Status
		entry.Status = entities.MessageStatusSent
		entry.ProviderMessageID = &receipt.SID
		sentAt := time.Now().UTC()
		entry.SentAt = &sentAt
	}

	if s.metrics != nil {
		metricOutcome := "sent"
		if !outcome.Success {
			metricOutcome = "failed"
		}
		observability.RecordSendMetric(ctx, s.metrics, metricOutcome, elapsed)
	}

	if logErr := s.logRepo.Record(ctx, entry); logErr != nil {
		outcome.LogError = logErr.Error()
	}

	s.publishEvent(ctx, entry)

	return outcome
}

func sendErrorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (s *DispatchService) publishEvent(ctx context.Context, entry *entities.MessageLogEntry) {
	if s.bus == nil {
		return
	}

	event := &entities.MessageEvent{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Recipient: entry.RecipientPhone,
		Status:    entry.Status,
		Timestamp: time.Now().UTC(),
	}

	_ = s.bus.Publish(ctx, providers.EventChannelMessageUpdates, event)
	_ = s.bus.Publish(ctx, providers.GetUserChannel(entry.UserID), event)
}

// History returns a user's message log, newest first.
func (s *DispatchService) History(ctx context.Context, userID string) ([]*entities.MessageLogEntry, error) {
	return s.logRepo.ListByUser(ctx, userID)
}
