package services

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	"github.com/brewline/coffeedesk/backend/internal/domain/providers"
	"github.com/brewline/coffeedesk/backend/internal/domain/repositories"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

const (
	statsCacheKeyPrefix = "feedback:stats:"
	statsCacheTTL       = 60
	recentWindow        = 7 * 24 * time.Hour
)

// FeedbackService handles customer feedback submissions, listing and stats.
type FeedbackService struct {
	repo  repositories.FeedbackRepository
	cache providers.CacheProvider
}

// NewFeedbackService creates a new feedback service. cache may be nil.
func NewFeedbackService(repo repositories.FeedbackRepository, cache providers.CacheProvider) *FeedbackService {
	return &FeedbackService{repo: repo, cache: cache}
}

// Create validates and stores a feedback record.
func (s *FeedbackService) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback.CustomerName == "" {
		return apperrors.NewValidationError("customer name is required")
	}
	if feedback.PhoneNumber == "" {
		return apperrors.NewValidationError("phone number is required")
	}
	if feedback.AccountNumber == "" {
		return apperrors.NewValidationError("account number is required")
	}
	if feedback.CoffeeType == "" {
		return apperrors.NewValidationError("coffee type is required")
	}
	if feedback.CoffeeQuality < 1 || feedback.CoffeeQuality > 5 {
		return apperrors.NewValidationError("coffee quality rating must be between 1 and 5")
	}
	if feedback.DeliveryExperience < 1 || feedback.DeliveryExperience > 5 {
		return apperrors.NewValidationError("delivery experience rating must be between 1 and 5")
	}

	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	feedback.CreatedAt = now
	feedback.UpdatedAt = now

	if err := s.repo.Create(ctx, feedback); err != nil {
		return err
	}

	if s.cache != nil {
		// Stats are derived; drop the cached copy so the next view recomputes.
		_ = s.cache.Delete(ctx, statsCacheKeyPrefix+feedback.UserID)
	}

	return nil
}

// List returns a user's feedback newest first, narrowed by the filter. Search
// matches case-insensitively against name, account number and coffee type, and
// as a plain substring against the phone; the quality rating is an exact match.
// Both conditions must hold when both are set.
func (s *FeedbackService) List(ctx context.Context, userID string, filter entities.FeedbackFilter) ([]*entities.Feedback, error) {
	feedbacks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	filtered := make([]*entities.Feedback, 0, len(feedbacks))
	for _, f := range feedbacks {
		if matchesFilter(f, filter) {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}

func matchesFilter(f *entities.Feedback, filter entities.FeedbackFilter) bool {
	if filter.QualityRating != nil && f.CoffeeQuality != *filter.QualityRating {
		return false
	}

	if filter.SearchTerm == "" {
		return true
	}

	term := strings.ToLower(filter.SearchTerm)
	if strings.Contains(strings.ToLower(f.CustomerName), term) {
		return true
	}
	if strings.Contains(strings.ToLower(f.AccountNumber), term) {
		return true
	}
	if strings.Contains(strings.ToLower(f.CoffeeType), term) {
		return true
	}
	return strings.Contains(f.PhoneNumber, filter.SearchTerm)
}

// Stats computes aggregate numbers over the user's full feedback set. The
// result is cached briefly; it is always recomputed from the records, never
// stored.
func (s *FeedbackService) Stats(ctx context.Context, userID string) (*entities.FeedbackStats, error) {
	cacheKey := statsCacheKeyPrefix + userID

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			stats := &entities.FeedbackStats{}
			if err := json.Unmarshal(data, stats); err == nil {
				return stats, nil
			}
		}
	}

	feedbacks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := computeStats(feedbacks, time.Now().UTC())

	if s.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, statsCacheTTL)
		}
	}

	return stats, nil
}

func computeStats(feedbacks []*entities.Feedback, now time.Time) *entities.FeedbackStats {
	stats := &entities.FeedbackStats{
		TotalFeedbacks: len(feedbacks),
	}
	if len(feedbacks) == 0 {
		return stats
	}

	var qualitySum, deliverySum int
	cutoff := now.Add(-recentWindow)
	for _, f := range feedbacks {
		qualitySum += f.CoffeeQuality
		deliverySum += f.DeliveryExperience
		if f.CreatedAt.After(cutoff) {
			stats.RecentFeedbacks++
		}
	}

	n := float64(len(feedbacks))
	stats.AverageQuality = roundToOneDecimal(float64(qualitySum) / n)
	stats.AverageDelivery = roundToOneDecimal(float64(deliverySum) / n)
	return stats
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
