package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/repositories"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

// ProfileAdapter implements staff profile persistence in Postgres.
type ProfileAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProfileAdapter creates a new profile adapter.
func NewProfileAdapter(client *postgres.Client) repositories.ProfileRepository {
	return &ProfileAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a profile by ID.
func (a *ProfileAdapter) GetByID(ctx context.Context, id string) (*entities.Profile, error) {
	query, args, err := a.db.Select(
		"id", "email", "full_name", "phone", "role", "created_at", "updated_at",
	).From("profiles").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build profile query", err)
	}

	profile := &entities.Profile{}
	var fullName, phone sql.NullString

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&profile.ID,
		&profile.Email,
		&fullName,
		&phone,
		&profile.Role,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("profile not found")
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to get profile", err)
	}

	profile.FullName = fullName.String
	profile.Phone = phone.String
	return profile, nil
}

// Update mutates full name, phone and role. Email is never written here.
func (a *ProfileAdapter) Update(ctx context.Context, profile *entities.Profile) error {
	if profile == nil {
		return apperrors.NewInternalError("profile is nil", fmt.Errorf("profile is nil"))
	}

	record := goqu.Record{
		"full_name":  profile.FullName,
		"phone":      profile.Phone,
		"role":       profile.Role,
		"updated_at": time.Now().UTC(),
	}

	query, args, err := a.db.Update("profiles").
		Set(record).
		Where(goqu.Ex{"id": profile.ID}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build profile update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewPersistenceError("failed to update profile", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewPersistenceError("failed to check update result", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("profile not found")
	}

	return nil
}
