package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/repositories"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

// TemplateAdapter implements message template persistence in Postgres.
type TemplateAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTemplateAdapter creates a new template adapter.
func NewTemplateAdapter(client *postgres.Client) repositories.TemplateRepository {
	return &TemplateAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a template. Variables are stored as a text[] column.
func (a *TemplateAdapter) Create(ctx context.Context, template *entities.MessageTemplate) error {
	if template == nil {
		return apperrors.NewInternalError("template is nil", fmt.Errorf("template is nil"))
	}

	record := goqu.Record{
		"id":         template.ID,
		"user_id":    template.UserID,
		"name":       template.Name,
		"content":    template.Body,
		"variables":  pq.Array(template.Variables),
		"created_at": template.CreatedAt,
		"updated_at": template.UpdatedAt,
	}

	query, args, err := a.db.Insert("message_templates").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build template insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewPersistenceError("failed to create template", err)
	}

	return nil
}

// GetByID retrieves a template by ID.
func (a *TemplateAdapter) GetByID(ctx context.Context, id string) (*entities.MessageTemplate, error) {
	query, args, err := a.db.Select(
		"id", "user_id", "name", "content", "variables", "created_at", "updated_at",
	).From("message_templates").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build template query", err)
	}

	template := &entities.MessageTemplate{}
	row := a.client.DB().QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&template.ID,
		&template.UserID,
		&template.Name,
		&template.Body,
		pq.Array(&template.Variables),
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("template not found")
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to get template", err)
	}

	return template, nil
}

// ListByUser retrieves a user's templates, newest first.
func (a *TemplateAdapter) ListByUser(ctx context.Context, userID string) ([]*entities.MessageTemplate, error) {
	query, args, err := a.db.Select(
		"id", "user_id", "name", "content", "variables", "created_at", "updated_at",
	).From("message_templates").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build template list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list templates", err)
	}
	defer rows.Close()

	var templates []*entities.MessageTemplate
	for rows.Next() {
		template := &entities.MessageTemplate{}
		err := rows.Scan(
			&template.ID,
			&template.UserID,
			&template.Name,
			&template.Body,
			pq.Array(&template.Variables),
			&template.CreatedAt,
			&template.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewPersistenceError("failed to scan template", err)
		}
		templates = append(templates, template)
	}

	return templates, nil
}

// Delete removes a template.
func (a *TemplateAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("message_templates").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build template delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewPersistenceError("failed to delete template", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewPersistenceError("failed to check delete result", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("template not found")
	}

	return nil
}
