package entities

import "time"

// MessageStatus represents the delivery status of an outbound SMS
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	// MessageStatusDelivered is reserved for a future provider status
	// callback; nothing transitions to it from this surface.
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
)

// MessageLogEntry records a single send attempt, successful or not. The log
// is the only audit trail of what was sent; entries are written once and
// never mutated.
type MessageLogEntry struct {
	ID                string        `json:"id" db:"id"`
	UserID            string        `json:"user_id" db:"user_id"`
	RecipientPhone    string        `json:"recipient_phone" db:"recipient_phone"`
	RecipientName     string        `json:"recipient_name" db:"recipient_name"`
	Message           string        `json:"message" db:"message"`
	Status            MessageStatus `json:"status" db:"status"`
	ProviderMessageID *string       `json:"provider_message_id,omitempty" db:"twilio_message_id"`
	ErrorMessage      *string       `json:"error_message,omitempty" db:"error_message"`
	SentAt            *time.Time    `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// Recipient is one target of an outbound message.
type Recipient struct {
	Phone       string `json:"to"`
	DisplayName string `json:"customer_name,omitempty"`
	Message     string `json:"message"`
}

// SendOutcome is the per-recipient result of a dispatch.
type SendOutcome struct {
	Phone             string `json:"to"`
	DisplayName       string `json:"customer_name,omitempty"`
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"message_id,omitempty"`
	ProviderStatus    string `json:"status,omitempty"`
	Error             string `json:"error,omitempty"`
	// LogError reports a failure to persist the attempt's log entry. It is
	// kept separate from Error so a messaging failure and a persistence
	// failure are never conflated.
	LogError string `json:"log_error,omitempty"`
}

// BulkResult aggregates a dispatch over many recipients. Outcomes preserve
// the input order so callers can correlate back to their recipient list.
type BulkResult struct {
	Outcomes    []SendOutcome `json:"results"`
	TotalSent   int           `json:"total_sent"`
	TotalFailed int           `json:"total_failed"`
}

// MessageEvent is published on the event bus after every send attempt so
// interested consumers (live dashboards) can follow delivery activity.
type MessageEvent struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Recipient string        `json:"recipient"`
	Status    MessageStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}
