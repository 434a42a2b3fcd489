package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/repositories"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

// FeedbackAdapter implements feedback persistence in Postgres.
type FeedbackAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFeedbackAdapter creates a new feedback adapter.
func NewFeedbackAdapter(client *postgres.Client) repositories.FeedbackRepository {
	return &FeedbackAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a feedback record.
func (a *FeedbackAdapter) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback == nil {
		return apperrors.NewInternalError("feedback is nil", fmt.Errorf("feedback is nil"))
	}

	record := goqu.Record{
		"id":                  feedback.ID,
		"user_id":             feedback.UserID,
		"customer_name":       feedback.CustomerName,
		"phone_number":        feedback.PhoneNumber,
		"account_number":      feedback.AccountNumber,
		"coffee_type":         feedback.CoffeeType,
		"coffee_weight":       feedback.CoffeeWeight,
		"customer_location":   feedback.CustomerLocation,
		"coffee_quality":      feedback.CoffeeQuality,
		"delivery_experience": feedback.DeliveryExperience,
		"comments":            sql.NullString{String: feedback.Comments, Valid: feedback.Comments != ""},
		"created_at":          feedback.CreatedAt,
		"updated_at":          feedback.UpdatedAt,
	}

	query, args, err := a.db.Insert("feedback").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build feedback insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewPersistenceError("failed to create feedback", err)
	}

	return nil
}

// ListByUser retrieves all feedback owned by a user, newest first.
func (a *FeedbackAdapter) ListByUser(ctx context.Context, userID string) ([]*entities.Feedback, error) {
	query, args, err := a.db.Select(
		"id", "user_id", "customer_name", "phone_number", "account_number",
		"coffee_type", "coffee_weight", "customer_location", "coffee_quality",
		"delivery_experience", "comments", "created_at", "updated_at",
	).From("feedback").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build feedback list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list feedback", err)
	}
	defer rows.Close()

	var feedbacks []*entities.Feedback
	for rows.Next() {
		feedback := &entities.Feedback{}
		var comments sql.NullString

		err := rows.Scan(
			&feedback.ID,
			&feedback.UserID,
			&feedback.CustomerName,
			&feedback.PhoneNumber,
			&feedback.AccountNumber,
			&feedback.CoffeeType,
			&feedback.CoffeeWeight,
			&feedback.CustomerLocation,
			&feedback.CoffeeQuality,
			&feedback.DeliveryExperience,
			&comments,
			&feedback.CreatedAt,
			&feedback.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewPersistenceError("failed to scan feedback", err)
		}

		feedback.Comments = comments.String
		feedbacks = append(feedbacks, feedback)
	}

	return feedbacks, nil
}
