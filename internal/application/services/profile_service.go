package services

import (
	"context"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/repositories"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
	"github.com/brewline/coffeedesk/backend/pkg/utils"
)

// ProfileService manages staff profiles.
type ProfileService struct {
	repo repositories.ProfileRepository
}

// NewProfileService creates a new profile service.
func NewProfileService(repo repositories.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// Get retrieves a profile.
func (s *ProfileService) Get(ctx context.Context, id string) (*entities.Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// Update mutates full name, phone and role. The email on the incoming profile
// is ignored; identity fields belong to the auth provider.
func (s *ProfileService) Update(ctx context.Context, profile *entities.Profile) (*entities.Profile, error) {
	if profile.ID == "" {
		return nil, apperrors.NewValidationError("profile id is required")
	}
	if profile.Role != "" && profile.Role != entities.RoleCustomer && profile.Role != entities.RoleAdmin {
		return nil, apperrors.NewValidationError("role must be customer or admin")
	}

	current, err := s.repo.GetByID(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	if profile.FullName != "" {
		current.FullName = profile.FullName
	}
	if profile.Phone != "" {
		current.Phone = utils.NormalizePhone(profile.Phone)
	}
	if profile.Role != "" {
		current.Role = profile.Role
	}

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, profile.ID)
}
