package gateway_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/coffeedesk/backend/internal/gateway"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/messaging"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

type stubSender struct {
	calls   []string
	failFor map[string]error
}

func (s *stubSender) Send(ctx context.Context, to, body string) (*messaging.SendReceipt, error) {
	s.calls = append(s.calls, to)
	if err, ok := s.failFor[to]; ok {
		return nil, err
	}
	return &messaging.SendReceipt{
		SID:    fmt.Sprintf("SM%d", len(s.calls)),
		Status: "queued",
	}, nil
}

func newHandler(sender *stubSender) *gateway.Handler {
	return gateway.NewHandler(func() (gateway.Sender, error) {
		return sender, nil
	})
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	handler := newHandler(&stubSender{})

	for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

			var response map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, "Method not allowed", response["error"])
		})
	}
}

func TestHandler_Preflight(t *testing.T) {
	handler := newHandler(&stubSender{})

	req := httptest.NewRequest("OPTIONS", "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestHandler_SingleSend(t *testing.T) {
	sender := &stubSender{}
	handler := newHandler(sender)

	body := `{"to":"+254 722 000001","message":"Your order shipped","customerName":"Wanjiku"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "+254722000001", sender.calls[0], "number is normalized before the provider call")

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "SM1", response["messageId"])
	assert.Equal(t, "queued", response["status"])
	assert.Equal(t, "+254 722 000001", response["to"])
}

func TestHandler_SingleSend_MissingFields(t *testing.T) {
	sender := &stubSender{}
	handler := newHandler(sender)

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"to":"+254722000001"}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, sender.calls)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, false, response["success"])
	assert.NotEmpty(t, response["error"])
}

func TestHandler_SingleSend_ProviderError(t *testing.T) {
	sender := &stubSender{
		failFor: map[string]error{
			"+254722000001": apperrors.NewGatewayError("The 'To' number is not a valid phone number.", 400, nil),
		},
	}
	handler := newHandler(sender)

	body := `{"to":"+254722000001","message":"Hello"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "The 'To' number is not a valid phone number.", response["error"])
}

func TestHandler_BulkSend(t *testing.T) {
	sender := &stubSender{
		failFor: map[string]error{
			"+254722000002": apperrors.NewGatewayError("Too many requests", 429, nil),
		},
	}
	handler := newHandler(sender)

	body := `{"recipients":[
		{"to":"+254722000001","message":"First","customerName":"Wanjiku"},
		{"to":"+254722000002","message":"Second"},
		{"to":"+254722000003","message":"Third"}
	]}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Success     bool `json:"success"`
		TotalSent   int  `json:"totalSent"`
		TotalFailed int  `json:"totalFailed"`
		Results     []struct {
			To        string `json:"to"`
			Success   bool   `json:"success"`
			MessageID string `json:"messageId"`
			Status    string `json:"status"`
			Error     string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	assert.True(t, response.Success)
	assert.Equal(t, 2, response.TotalSent)
	assert.Equal(t, 1, response.TotalFailed)
	require.Len(t, response.Results, 3)
	assert.Equal(t, "+254722000001", response.Results[0].To)
	assert.True(t, response.Results[0].Success)
	assert.Equal(t, "SM1", response.Results[0].MessageID)
	assert.Equal(t, "queued", response.Results[0].Status, "successful items carry the provider status")
	assert.Empty(t, response.Results[1].Status)
	assert.False(t, response.Results[1].Success)
	assert.Equal(t, "Too many requests", response.Results[1].Error)
	assert.True(t, response.Results[2].Success, "one failure does not stop the rest")
}

func TestHandler_BulkSend_EmptyList(t *testing.T) {
	sender := &stubSender{}
	handler := newHandler(sender)

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"recipients":[]}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sender.calls)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, float64(0), response["totalSent"])
	assert.Equal(t, float64(0), response["totalFailed"])
}

func TestHandler_InvalidJSON(t *testing.T) {
	handler := newHandler(&stubSender{})

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, false, response["success"])
}

func TestHandler_MissingCredentials(t *testing.T) {
	handler := gateway.NewHandler(func() (gateway.Sender, error) {
		return nil, apperrors.NewConfigurationError("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_PHONE_NUMBER must be set")
	})

	body := `{"to":"+254722000001","message":"Hello"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, false, response["success"])
	assert.Contains(t, response["error"], "TWILIO_ACCOUNT_SID")
}
