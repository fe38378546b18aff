package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
)

const twilioVerifyBaseURL = "https://verify.twilio.com/v2"

// TwilioVerify delegates challenge state to the Twilio Verify v2 API.
type TwilioVerify struct {
	AccountSID string
	AuthToken  string
	ServiceSID string
	BaseURL    string
	HTTPClient *http.Client
}

type verifyResponse struct {
	Status string `json:"status"`
}

func NewTwilioVerify(accountSID, authToken, serviceSID string) *TwilioVerify {
	return &TwilioVerify{
		AccountSID: accountSID,
		AuthToken:  authToken,
		ServiceSID: serviceSID,
		BaseURL:    twilioVerifyBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *TwilioVerify) RequestCode(ctx context.Context, phone string) (entity.OTPStatus, error) {
	status, code, err := t.post(ctx, "Verifications", url.Values{"To": {phone}, "Channel": {"sms"}})
	if err != nil {
		return entity.OTPFailed, err
	}
	if code/100 != 2 {
		return entity.OTPFailed, nil
	}
	return mapStatus(status), nil
}

func (t *TwilioVerify) CheckCode(ctx context.Context, phone, code string) (entity.OTPStatus, error) {
	status, httpCode, err := t.post(ctx, "VerificationCheck", url.Values{"To": {phone}, "Code": {code}})
	if err != nil {
		return entity.OTPFailed, err
	}
	switch {
	case httpCode == http.StatusNotFound:
		return entity.OTPExpired, nil
	case httpCode/100 != 2:
		return entity.OTPRejected, nil
	}
	return mapStatus(status), nil
}

func (t *TwilioVerify) post(ctx context.Context, resource string, form url.Values) (string, int, error) {
	endpoint := fmt.Sprintf("%s/Services/%s/%s", strings.TrimRight(t.BaseURL, "/"), url.PathEscape(t.ServiceSID), resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("twilio verify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", resp.StatusCode, nil
	}
	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", resp.StatusCode, fmt.Errorf("twilio verify: decode: %w", err)
	}
	return out.Status, resp.StatusCode, nil
}

func mapStatus(s string) entity.OTPStatus {
	switch s {
	case "pending":
		return entity.OTPPending
	case "approved":
		return entity.OTPApproved
	case "canceled", "expired":
		return entity.OTPExpired
	case "failed":
		return entity.OTPFailed
	}
	return entity.OTPRejected
}
