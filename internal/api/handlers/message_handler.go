package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
)

// DispatchService defines the messaging operations used by the handler.
type DispatchService interface {
	SendSingle(ctx context.Context, userID string, recipient entities.Recipient) (*entities.SendOutcome, error)
	Dispatch(ctx context.Context, userID string, recipients []entities.Recipient) (*entities.BulkResult, error)
	History(ctx context.Context, userID string) ([]*entities.MessageLogEntry, error)
}

// TemplateRenderer resolves a stored template into a message body.
type TemplateRenderer interface {
	RenderByID(ctx context.Context, userID, templateID string, values map[string]string) (string, error)
}

// MessageHandler handles SMS dispatch requests.
type MessageHandler struct {
	dispatch  DispatchService
	templates TemplateRenderer
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(dispatch DispatchService, templates TemplateRenderer) *MessageHandler {
	return &MessageHandler{
		dispatch:  dispatch,
		templates: templates,
	}
}

// SendMessage handles POST /api/messages/send
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var recipient entities.Recipient
	if err := json.NewDecoder(r.Body).Decode(&recipient); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	outcome, err := h.dispatch.SendSingle(r.Context(), userID, recipient)
	if err != nil {
		respondWithServiceError(w, err, "failed to send message")
		return
	}

	respondWithJSON(w, http.StatusOK, outcome)
}

type bulkSendRequest struct {
	Recipients []entities.Recipient `json:"recipients"`
}

// SendBulk handles POST /api/messages/send-bulk
func (h *MessageHandler) SendBulk(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var payload bulkSendRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.dispatch.Dispatch(r.Context(), userID, payload.Recipients)
	if err != nil {
		respondWithServiceError(w, err, "failed to dispatch messages")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type templateSendRequest struct {
	TemplateID string `json:"template_id"`
	Recipients []struct {
		Phone       string            `json:"to"`
		DisplayName string            `json:"customer_name,omitempty"`
		Values      map[string]string `json:"values,omitempty"`
	} `json:"recipients"`
}

// SendTemplate handles POST /api/messages/send-template. Each recipient's
// values render the template independently, so personalization varies per
// message within one dispatch.
func (h *MessageHandler) SendTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var payload templateSendRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.TemplateID == "" {
		respondWithError(w, http.StatusBadRequest, "template_id is required")
		return
	}

	recipients := make([]entities.Recipient, 0, len(payload.Recipients))
	for _, rcpt := range payload.Recipients {
		values := rcpt.Values
		if values == nil {
			values = map[string]string{}
		}
		if _, ok := values["name"]; !ok && rcpt.DisplayName != "" {
			values["name"] = rcpt.DisplayName
		}

		body, err := h.templates.RenderByID(r.Context(), userID, payload.TemplateID, values)
		if err != nil {
			respondWithServiceError(w, err, "failed to render template")
			return
		}

		recipients = append(recipients, entities.Recipient{
			Phone:       rcpt.Phone,
			DisplayName: rcpt.DisplayName,
			Message:     body,
		})
	}

	result, err := h.dispatch.Dispatch(r.Context(), userID, recipients)
	if err != nil {
		respondWithServiceError(w, err, "failed to dispatch messages")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /api/messages
func (h *MessageHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	entries, err := h.dispatch.History(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "failed to load message history")
		return
	}
	if entries == nil {
		entries = []*entities.MessageLogEntry{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"messages": entries,
		"count":    len(entries),
	})
}
