package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/providers"
)

// StreamHandler pushes message delivery events to connected dashboards over
// Server-Sent Events. Each client only sees events for its own user channel.
type StreamHandler struct {
	eventBus providers.EventBus
	clients  map[string]map[chan *entities.MessageEvent]bool
	mu       sync.RWMutex
}

// NewStreamHandler creates a stream handler backed by the given event bus.
func NewStreamHandler(eventBus providers.EventBus) *StreamHandler {
	return &StreamHandler{
		eventBus: eventBus,
		clients:  make(map[string]map[chan *entities.MessageEvent]bool),
	}
}

// StreamMessages handles GET /api/messages/stream. The connection stays open
// until the client disconnects; send outcomes arrive as they are published.
func (h *StreamHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	channel := providers.GetUserChannel(userID)

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to message events")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe to message events")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan *entities.MessageEvent, 10)
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	h.sendEvent(w, "connected", map[string]interface{}{
		"user_id":   userID,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan)

	// Heartbeat keeps intermediaries from closing an idle connection.
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-clientChan:
			if !ok {
				return
			}
			h.sendEvent(w, "message", event)
			flusher.Flush()
		}
	}
}

func (h *StreamHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.MessageEvent, clientChan chan *entities.MessageEvent) {
	defer close(clientChan)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
				log.Warn().Str("event_id", event.ID).Msg("dropping event for slow stream client")
			}
		}
	}
}

func (h *StreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal stream event")
		return
	}
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func (h *StreamHandler) registerClient(channel string, ch chan *entities.MessageEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.MessageEvent]bool)
	}
	h.clients[channel][ch] = true
}

func (h *StreamHandler) unregisterClient(channel string, ch chan *entities.MessageEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients[channel], ch)
	if len(h.clients[channel]) == 0 {
		delete(h.clients, channel)
		if err := h.eventBus.Unsubscribe(context.Background(), channel); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("failed to unsubscribe from channel")
		}
	}
}

// ClientCount reports how many clients are streaming a channel.
func (h *StreamHandler) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[channel])
}
