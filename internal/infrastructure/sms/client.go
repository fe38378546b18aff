package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTimeout = 15 * time.Second

// Client sends text messages through a form-POST SMS gateway.
// In dry-run mode, or without an API key, messages are only logged.
type Client struct {
	APIURL     string
	APIKey     string
	Sender     string
	DryRun     bool
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

type sendResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewClient(apiURL, apiKey, sender string, dryRun bool, logger *logrus.Logger) *Client {
	return &Client{
		APIURL:     apiURL,
		APIKey:     apiKey,
		Sender:     sender,
		DryRun:     dryRun,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Logger:     logger,
	}
}

// Send delivers text to the E.164 number to.
func (c *Client) Send(ctx context.Context, to, text string) error {
	if c.DryRun || c.APIKey == "" || c.APIURL == "" {
		if c.Logger != nil {
			c.Logger.WithFields(logrus.Fields{"to": to, "sender": c.Sender, "chars": len(text)}).Info("sms dry-run")
		}
		return nil
	}

	form := url.Values{
		"apiKey":    {c.APIKey},
		"recipient": {strings.TrimPrefix(to, "+")},
		"text":      {text},
	}
	if c.Sender != "" {
		form.Set("from", c.Sender)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(body))
	}
	var result sendResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("sms: parse response: %w", err)
		}
	}
	if result.Code != 0 {
		return fmt.Errorf("sms: gateway returned code %d: %s", result.Code, result.Message)
	}
	return nil
}
