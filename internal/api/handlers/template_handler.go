package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
)

// TemplateService defines the template operations used by the handler.
type TemplateService interface {
	Create(ctx context.Context, template *entities.MessageTemplate) error
	List(ctx context.Context, userID string) ([]*entities.MessageTemplate, error)
	Delete(ctx context.Context, userID, templateID string) error
}

// TemplateHandler handles message template requests.
type TemplateHandler struct {
	service TemplateService
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(service TemplateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// CreateTemplate handles POST /api/templates
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var template entities.MessageTemplate
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	template.UserID = userID

	if err := h.service.Create(r.Context(), &template); err != nil {
		respondWithServiceError(w, err, "failed to create template")
		return
	}

	respondWithJSON(w, http.StatusCreated, template)
}

// ListTemplates handles GET /api/templates
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	templates, err := h.service.List(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []*entities.MessageTemplate{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

// DeleteTemplate handles DELETE /api/templates/{id}
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	templateID := r.PathValue("id")
	if templateID == "" {
		respondWithError(w, http.StatusBadRequest, "template ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), userID, templateID); err != nil {
		respondWithServiceError(w, err, "failed to delete template")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
