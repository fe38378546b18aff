package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, code string, data any, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status, "success": status < 300, "code": code, "message": code, "data": data, "error": fields,
	})
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, NewSessionStore(t.TempDir(), nil))
}

func loginPayload() map[string]any {
	return map[string]any{
		"session":      map[string]any{"id": "u-1", "name": "jane", "email": "jane@example.com", "role": "admin"},
		"access_token": "tok-1",
		"expires_at":   time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}
}

func TestLoginPersistsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login", r.URL.Path)
		writeEnvelope(w, http.StatusOK, "", loginPayload(), nil)
	})

	s, err := c.Login(context.Background(), "jane@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", s.AccessToken)

	stored, err := c.Session()
	require.NoError(t, err)
	assert.Equal(t, "admin", stored.Role)
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, "invalid_credentials", nil, nil)
	})

	_, err := c.Login(context.Background(), "jane@example.com", "bad")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_credentials", apiErr.Code)

	_, err = c.Session()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAuthenticatedCallsSendBearerAndPurgeOn401(t *testing.T) {
	var revoked atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			writeEnvelope(w, http.StatusOK, "", loginPayload(), nil)
		case "/api/reports":
			if revoked.Load() {
				writeEnvelope(w, http.StatusUnauthorized, "unauthorized", nil, nil)
				return
			}
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			writeEnvelope(w, http.StatusOK, "", []map[string]any{{"id": "r-1", "status": "New"}}, nil)
		}
	})
	ctx := context.Background()
	_, err := c.Login(ctx, "jane@example.com", "pw")
	require.NoError(t, err)

	items, err := c.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ResolvedAt)

	revoked.Store(true)
	_, err = c.ListReports(ctx)
	require.Error(t, err)
	_, err = c.Session()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSubmitReportAnonymousAndValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var in SubmitReportInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if len(in.Description) < 10 {
			writeEnvelope(w, http.StatusBadRequest, "validation_failed", nil, map[string]string{"description": "too short"})
			return
		}
		writeEnvelope(w, http.StatusCreated, "", map[string]string{"id": "r-9"}, nil)
	})
	lat, lon := 12.34, 56.78

	id, err := c.SubmitReport(context.Background(), SubmitReportInput{Description: "Gas leak near 5th ave", Urgency: "High", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	assert.Equal(t, "r-9", id)

	_, err = c.SubmitReport(context.Background(), SubmitReportInput{Description: "short", Urgency: "High", Latitude: &lat, Longitude: &lon})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "too short", apiErr.Fields["description"])
}

func TestUpdateStatusRequiresSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.UpdateStatus(context.Background(), "r-1", "Resolved")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLogoutClearsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "", loginPayload(), nil)
	})
	_, err := c.Login(context.Background(), "jane@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	_, err = c.Session()
	assert.ErrorIs(t, err, ErrNoSession)
}
