package providers

import (
	"context"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// message delivery events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.MessageEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.MessageEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelMessageUpdates carries every send outcome
	EventChannelMessageUpdates = "messages:updates"

	// EventChannelUserPrefix is the prefix for per-user channels
	EventChannelUserPrefix = "messages:user:"
)

// GetUserChannel returns the channel name scoped to one user's sends
func GetUserChannel(userID string) string {
	return EventChannelUserPrefix + userID
}
