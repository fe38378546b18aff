package otp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
)

func newTwilio(t *testing.T, h http.HandlerFunc) *TwilioVerify {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tv := NewTwilioVerify("AC123", "secret", "VA456")
	tv.BaseURL = srv.URL
	return tv
}

func TestTwilioVerify_RequestCode(t *testing.T) {
	tv := newTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/Services/VA456/Verifications", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551234567", r.PostForm.Get("To"))
		assert.Equal(t, "sms", r.PostForm.Get("Channel"))
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	})

	st, err := tv.RequestCode(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, entity.OTPPending, st)
}

func TestTwilioVerify_RequestRejectedByProvider(t *testing.T) {
	tv := newTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	st, err := tv.RequestCode(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, entity.OTPFailed, st)
}

func TestTwilioVerify_CheckCode(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   entity.OTPStatus
	}{
		{"approved", http.StatusOK, `{"status":"approved"}`, entity.OTPApproved},
		{"wrong code", http.StatusOK, `{"status":"pending"}`, entity.OTPPending},
		{"no challenge", http.StatusNotFound, `{}`, entity.OTPExpired},
		{"canceled", http.StatusOK, `{"status":"canceled"}`, entity.OTPExpired},
		{"throttled", http.StatusTooManyRequests, `{}`, entity.OTPRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tv := newTwilio(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/Services/VA456/VerificationCheck", r.URL.Path)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			st, err := tv.CheckCode(context.Background(), "+15551234567", "123456")
			require.NoError(t, err)
			assert.Equal(t, tc.want, st)
		})
	}
}

func TestTwilioVerify_TransportError(t *testing.T) {
	tv := NewTwilioVerify("AC123", "secret", "VA456")
	tv.BaseURL = "http://127.0.0.1:1"

	_, err := tv.CheckCode(context.Background(), "+15551234567", "123456")
	assert.Error(t, err)
}
