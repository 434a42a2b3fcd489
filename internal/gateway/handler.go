// Package gateway implements the standalone SMS send function: a minimal
// HTTP surface that fronts the messaging provider for callers that do not
// go through the main API.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/brewline/coffeedesk/backend/internal/infrastructure/messaging"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
	"github.com/brewline/coffeedesk/backend/pkg/utils"
)

// Sender performs one provider send.
type Sender interface {
	Send(ctx context.Context, to, body string) (*messaging.SendReceipt, error)
}

// SenderFactory builds a sender per request so a credential problem surfaces
// as a request error instead of killing the process at startup.
type SenderFactory func() (Sender, error)

// Handler is the HTTP entrypoint of the send function.
type Handler struct {
	newSender SenderFactory
}

// NewHandler creates a gateway handler.
func NewHandler(newSender SenderFactory) *Handler {
	return &Handler{newSender: newSender}
}

type sendRequest struct {
	To           string `json:"to"`
	Message      string `json:"message"`
	CustomerName string `json:"customerName,omitempty"`
}

type bulkRequest struct {
	Recipients []sendRequest `json:"recipients"`
}

type sendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	To        string `json:"to"`
}

type bulkItemResponse struct {
	To           string `json:"to"`
	CustomerName string `json:"customerName,omitempty"`
	Success      bool   `json:"success"`
	MessageID    string `json:"messageId,omitempty"`
	Status       string `json:"status,omitempty"`
	Error        string `json:"error,omitempty"`
}

type bulkResponse struct {
	Success     bool               `json:"success"`
	Results     []bulkItemResponse `json:"results"`
	TotalSent   int                `json:"totalSent"`
	TotalFailed int                `json:"totalFailed"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ServeHTTP handles every method on the function endpoint. Anything that
// goes wrong inside a POST is reported as a 500 with a JSON body; only a
// non-POST method gets a different status.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.fail(w, "invalid JSON payload")
		return
	}

	sender, err := h.newSender()
	if err != nil {
		h.fail(w, errorMessage(err))
		return
	}

	if recipientsRaw, ok := raw["recipients"]; ok {
		h.handleBulk(w, r, sender, recipientsRaw)
		return
	}

	h.handleSingle(w, r, sender, raw)
}

func (h *Handler) handleSingle(w http.ResponseWriter, r *http.Request, sender Sender, raw map[string]json.RawMessage) {
	var payload sendRequest
	if to, ok := raw["to"]; ok {
		_ = json.Unmarshal(to, &payload.To)
	}
	if message, ok := raw["message"]; ok {
		_ = json.Unmarshal(message, &payload.Message)
	}

	if payload.To == "" || payload.Message == "" {
		h.fail(w, "to and message are required")
		return
	}

	receipt, err := sender.Send(r.Context(), utils.NormalizePhone(payload.To), payload.Message)
	if err != nil {
		log.Warn().Err(err).Str("to", payload.To).Msg("send failed")
		h.fail(w, errorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{
		Success:   true,
		MessageID: receipt.SID,
		Status:    receipt.Status,
		To:        payload.To,
	})
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request, sender Sender, recipientsRaw json.RawMessage) {
	var payload bulkRequest
	if err := json.Unmarshal(recipientsRaw, &payload.Recipients); err != nil {
		h.fail(w, "recipients must be a list")
		return
	}

	response := bulkResponse{
		Success: true,
		Results: make([]bulkItemResponse, 0, len(payload.Recipients)),
	}

	for _, rcpt := range payload.Recipients {
		item := bulkItemResponse{
			To:           rcpt.To,
			CustomerName: rcpt.CustomerName,
		}

		if rcpt.To == "" || rcpt.Message == "" {
			item.Error = "to and message are required"
			response.Results = append(response.Results, item)
			response.TotalFailed++
			continue
		}

		receipt, err := sender.Send(r.Context(), utils.NormalizePhone(rcpt.To), rcpt.Message)
		if err != nil {
			log.Warn().Err(err).Str("to", rcpt.To).Msg("bulk send failed")
			item.Error = errorMessage(err)
			response.TotalFailed++
		} else {
			item.Success = true
			item.MessageID = receipt.SID
			item.Status = receipt.Status
			response.TotalSent++
		}
		response.Results = append(response.Results, item)
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) fail(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Success: false,
		Error:   message,
	})
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
