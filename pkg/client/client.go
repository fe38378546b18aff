package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoSession is returned by calls that need a login when none is stored.
var ErrNoSession = errors.New("not logged in")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for k, v := range e.Fields {
			parts = append(parts, k+" "+v)
		}
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

type Report struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Urgency     string     `json:"urgency"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Status      string     `json:"status"`
	ReportedBy  string     `json:"reportedBy"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ResolvedAt  *time.Time `json:"resolvedAt"`
}

type SubmitReportInput struct {
	Description string   `json:"description"`
	Urgency     string   `json:"urgency"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

// Client talks to the hazard reporting API and keeps the session in Store.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      *SessionStore
}

func New(baseURL string, store *SessionStore) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Store:      store,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type loginResult struct {
	Session struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
		Role  string `json:"role"`
	} `json:"session"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login authenticates with email and password and persists the session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var res loginResult
	if err := c.do(ctx, http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": password}, &res); err != nil {
		return nil, err
	}
	return c.persist(res)
}

func (c *Client) RequestOTP(ctx context.Context, phone string) error {
	return c.do(ctx, http.MethodPost, "/api/otp/request", "", map[string]string{"phone": phone}, nil)
}

// VerifyOTP logs in with a phone code and persists the session.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*Session, error) {
	var res loginResult
	if err := c.do(ctx, http.MethodPost, "/api/otp/verify", "", map[string]string{"phone": phone, "code": code}, &res); err != nil {
		return nil, err
	}
	return c.persist(res)
}

// Logout purges the local session. The server call is best effort.
func (c *Client) Logout(ctx context.Context) error {
	_ = c.do(ctx, http.MethodPost, "/api/logout", "", nil, nil)
	return c.Store.Clear()
}

// Session returns the stored session, or ErrNoSession.
func (c *Client) Session() (*Session, error) {
	s, err := c.Store.Load()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

// SubmitReport files a report, authenticated when a session is stored.
func (c *Client) SubmitReport(ctx context.Context, in SubmitReportInput) (string, error) {
	token := ""
	if s, err := c.Store.Load(); err == nil && s != nil {
		token = s.AccessToken
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/reports", token, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) ListReports(ctx context.Context) ([]Report, error) {
	s, err := c.Session()
	if err != nil {
		return nil, err
	}
	out := []Report{}
	if err := c.do(ctx, http.MethodGet, "/api/reports", s.AccessToken, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id, status string) (*Report, error) {
	s, err := c.Session()
	if err != nil {
		return nil, err
	}
	var out Report
	path := "/api/reports/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, s.AccessToken, map[string]string{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) persist(res loginResult) (*Session, error) {
	s := &Session{
		ID:          res.Session.ID,
		Name:        res.Session.Name,
		Email:       res.Session.Email,
		Phone:       res.Session.Phone,
		Role:        res.Session.Role,
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
	}
	if err := c.Store.Save(s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// do sends body as JSON and decodes the envelope data into out. A 401 on an
// authenticated call purges the stored session.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode/100 != 2 {
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			_ = c.Store.Clear()
		}
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
		_ = json.Unmarshal(env.Error, &apiErr.Fields)
		return apiErr
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
