package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/coffeedesk/backend/internal/api/handlers"
	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/providers"
)

type stubEventBus struct {
	mu          sync.Mutex
	subscribers map[string]chan *entities.MessageEvent
	published   []*entities.MessageEvent
}

func newStubEventBus() *stubEventBus {
	return &stubEventBus{subscribers: make(map[string]chan *entities.MessageEvent)}
}

func (b *stubEventBus) Publish(ctx context.Context, channel string, event *entities.MessageEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.published = append(b.published, event)
	if ch, ok := b.subscribers[channel]; ok {
		ch <- event
	}
	return nil
}

func (b *stubEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.MessageEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *entities.MessageEvent, 10)
	b.subscribers[channel] = ch
	return ch, nil
}

func (b *stubEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[channel]; ok {
		close(ch)
		delete(b.subscribers, channel)
	}
	return nil
}

func (b *stubEventBus) Close() error { return nil }

func TestStreamHandler_MissingIdentity(t *testing.T) {
	handler := handlers.NewStreamHandler(newStubEventBus())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/messages/stream", nil)

	handler.StreamMessages(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStreamHandler_DeliversUserEvents(t *testing.T) {
	bus := newStubEventBus()
	handler := handlers.NewStreamHandler(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := authedRequest("GET", "/api/messages/stream", "").WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.StreamMessages(w, req)
	}()

	channel := providers.GetUserChannel("user-1")
	require.Eventually(t, func() bool {
		return handler.ClientCount(channel) == 1
	}, time.Second, 10*time.Millisecond, "client registers on connect")

	require.NoError(t, bus.Publish(context.Background(), channel, &entities.MessageEvent{
		ID:        "evt-1",
		UserID:    "user-1",
		Recipient: "+254722000001",
		Status:    entities.MessageStatusSent,
		Timestamp: time.Now().UTC(),
	}))

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: message")
	assert.Contains(t, body, "+254722000001")

	assert.Equal(t, 0, handler.ClientCount(channel), "client unregisters on disconnect")
}

func TestStreamHandler_DisconnectCleansUp(t *testing.T) {
	bus := newStubEventBus()
	handler := handlers.NewStreamHandler(bus)

	ctx, cancel := context.WithCancel(context.Background())
	req := authedRequest("GET", "/api/messages/stream", "").WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.StreamMessages(w, req)
	}()

	channel := providers.GetUserChannel("user-1")
	require.Eventually(t, func() bool {
		return handler.ClientCount(channel) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	assert.Equal(t, 0, handler.ClientCount(channel))

	bus.mu.Lock()
	_, stillSubscribed := bus.subscribers[channel]
	bus.mu.Unlock()
	assert.False(t, stillSubscribed, "channel subscription is released with the last client")
}
