package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
)

// ProfileService defines the profile operations used by the handler.
type ProfileService interface {
	Get(ctx context.Context, id string) (*entities.Profile, error)
	Update(ctx context.Context, profile *entities.Profile) (*entities.Profile, error)
}

// ProfileHandler handles staff profile requests.
type ProfileHandler struct {
	service ProfileService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// GetProfile handles GET /api/profiles/{id}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("id")
	if profileID == "" {
		respondWithError(w, http.StatusBadRequest, "profile ID is required")
		return
	}

	profile, err := h.service.Get(r.Context(), profileID)
	if err != nil {
		respondWithServiceError(w, err, "failed to load profile")
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/profiles/{id}. Callers may only edit their
// own profile.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	profileID := r.PathValue("id")
	if profileID == "" {
		respondWithError(w, http.StatusBadRequest, "profile ID is required")
		return
	}
	if profileID != userID {
		respondWithError(w, http.StatusForbidden, "cannot edit another user's profile")
		return
	}

	var profile entities.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	profile.ID = profileID

	updated, err := h.service.Update(r.Context(), &profile)
	if err != nil {
		respondWithServiceError(w, err, "failed to update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
