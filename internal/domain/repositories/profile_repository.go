package repositories

import (
	"context"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
)

// ProfileRepository defines the interface for user profile operations.
type ProfileRepository interface {
	// GetByID retrieves a profile by ID
	GetByID(ctx context.Context, id string) (*entities.Profile, error)

	// Update mutates full name, phone and role. Email is immutable from
	// this surface.
	Update(ctx context.Context, profile *entities.Profile) error
}
