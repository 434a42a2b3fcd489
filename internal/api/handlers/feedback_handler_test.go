package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/coffeedesk/backend/internal/api/handlers"
	"github.com/brewline/coffeedesk/backend/internal/domain/entities"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

type stubFeedbackService struct {
	created    []*entities.Feedback
	listResult []*entities.Feedback
	lastFilter entities.FeedbackFilter
	stats      *entities.FeedbackStats
}

func (s *stubFeedbackService) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback.CoffeeQuality < 1 || feedback.CoffeeQuality > 5 {
		return apperrors.NewValidationError("coffee quality rating must be between 1 and 5")
	}
	if feedback.ID == "" {
		feedback.ID = "test-id"
	}
	s.created = append(s.created, feedback)
	return nil
}

func (s *stubFeedbackService) List(ctx context.Context, userID string, filter entities.FeedbackFilter) ([]*entities.Feedback, error) {
	s.lastFilter = filter
	return s.listResult, nil
}

func (s *stubFeedbackService) Stats(ctx context.Context, userID string) (*entities.FeedbackStats, error) {
	return s.stats, nil
}

func submitRequest(body, remoteAddr string) *http.Request {
	req := httptest.NewRequest("POST", "/api/feedback", strings.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	req.RemoteAddr = remoteAddr
	return req
}

func TestFeedbackHandler_SubmitFeedback_Success(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	body := `{"customer_name":"Wanjiku","phone_number":"+254722000001","coffee_type":"Arabica","coffee_quality":5,"delivery_experience":4}`
	w := httptest.NewRecorder()

	handler.SubmitFeedback(w, submitRequest(body, "10.0.0.1:1234"))

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, service.created, 1)
	assert.Equal(t, "user-1", service.created[0].UserID)

	var response entities.Feedback
	err := json.NewDecoder(w.Body).Decode(&response)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.ID)
}

func TestFeedbackHandler_SubmitFeedback_MissingIdentity(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	req := httptest.NewRequest("POST", "/api/feedback", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.SubmitFeedback(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, service.created)
}

func TestFeedbackHandler_SubmitFeedback_ValidationError(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	body := `{"customer_name":"Wanjiku","phone_number":"+254722000001","coffee_type":"Arabica","coffee_quality":9,"delivery_experience":4}`
	w := httptest.NewRecorder()

	handler.SubmitFeedback(w, submitRequest(body, "10.0.0.3:1234"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, service.created)
}

func TestFeedbackHandler_SubmitFeedback_RateLimit(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	for i := 0; i < 5; i++ {
		body := `{"customer_name":"Customer ` + strconv.Itoa(i) + `","phone_number":"+25472200000` + strconv.Itoa(i) + `","coffee_type":"Arabica","coffee_quality":4,"delivery_experience":4}`
		w := httptest.NewRecorder()
		handler.SubmitFeedback(w, submitRequest(body, "10.0.0.2:1234"))
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	body := `{"customer_name":"One Too Many","phone_number":"+254722000099","coffee_type":"Arabica","coffee_quality":4,"delivery_experience":4}`
	w := httptest.NewRecorder()
	handler.SubmitFeedback(w, submitRequest(body, "10.0.0.2:1234"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestFeedbackHandler_SubmitFeedback_Duplicate(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	body := `{"customer_name":"Wanjiku","phone_number":"+254722000001","coffee_type":"Arabica","coffee_quality":5,"delivery_experience":4}`

	w := httptest.NewRecorder()
	handler.SubmitFeedback(w, submitRequest(body, "10.0.0.9:1234"))
	assert.Equal(t, http.StatusCreated, w.Code)

	w2 := httptest.NewRecorder()
	handler.SubmitFeedback(w2, submitRequest(body, "10.0.0.9:1234"))
	assert.Equal(t, http.StatusAccepted, w2.Code)
	assert.Len(t, service.created, 1)
}

func TestFeedbackHandler_ListFeedback_ParsesFilter(t *testing.T) {
	service := &stubFeedbackService{
		listResult: []*entities.Feedback{{ID: "f1"}},
	}
	handler := handlers.NewFeedbackHandler(service, nil)

	req := httptest.NewRequest("GET", "/api/feedback?search=arabica&quality=4", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()

	handler.ListFeedback(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "arabica", service.lastFilter.SearchTerm)
	require.NotNil(t, service.lastFilter.QualityRating)
	assert.Equal(t, 4, *service.lastFilter.QualityRating)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, float64(1), response["count"])
}

func TestFeedbackHandler_ListFeedback_BadQuality(t *testing.T) {
	handler := handlers.NewFeedbackHandler(&stubFeedbackService{}, nil)

	req := httptest.NewRequest("GET", "/api/feedback?quality=great", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()

	handler.ListFeedback(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedbackHandler_GetStats(t *testing.T) {
	service := &stubFeedbackService{
		stats: &entities.FeedbackStats{
			TotalFeedbacks:  12,
			AverageQuality:  4.2,
			AverageDelivery: 3.9,
			RecentFeedbacks: 3,
		},
	}
	handler := handlers.NewFeedbackHandler(service, nil)

	req := httptest.NewRequest("GET", "/api/feedback/stats", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()

	handler.GetStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats entities.FeedbackStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 12, stats.TotalFeedbacks)
	assert.Equal(t, 4.2, stats.AverageQuality)
}
