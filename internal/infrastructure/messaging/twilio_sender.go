package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brewline/coffeedesk/backend/pkg/config"
	apperrors "github.com/brewline/coffeedesk/backend/pkg/errors"
)

const messagesPath = "/2010-04-01/Accounts/%s/Messages.json"

// TwilioSender sends SMS through the Twilio REST API
type TwilioSender struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

// NewTwilioSender creates a new Twilio sender. Missing credentials are a
// configuration error; callers decide whether that is fatal.
func NewTwilioSender(cfg *config.TwilioConfig) (*TwilioSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, apperrors.NewConfigurationError("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_PHONE_NUMBER must be set")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}

	return &TwilioSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// SendReceipt is the provider's acknowledgement of an accepted message
type SendReceipt struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// twilioError is the body Twilio returns on rejection
type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Send performs exactly one outbound call to the provider. It never retries;
// retry policy belongs to the caller.
func (s *TwilioSender) Send(ctx context.Context, to, body string) (*SendReceipt, error) {
	if to == "" {
		return nil, apperrors.NewValidationError("recipient phone is required")
	}
	if body == "" {
		return nil, apperrors.NewValidationError("message body is required")
	}

	form := url.Values{}
	form.Set("From", s.fromNumber)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := s.baseURL + fmt.Sprintf(messagesPath, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create provider request", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewGatewayError("provider unreachable", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewGatewayError("failed to read provider response", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := http.StatusText(resp.StatusCode)
		var provErr twilioError
		if err := json.Unmarshal(respBody, &provErr); err == nil && provErr.Message != "" {
			reason = provErr.Message
		}
		return nil, apperrors.NewGatewayError(reason, resp.StatusCode, nil)
	}

	var receipt SendReceipt
	if err := json.Unmarshal(respBody, &receipt); err != nil {
		return nil, apperrors.NewGatewayError("failed to unmarshal provider response", resp.StatusCode, err)
	}

	if receipt.SID == "" {
		return nil, apperrors.NewGatewayError("no message sid in provider response", resp.StatusCode, nil)
	}

	return &receipt, nil
}
