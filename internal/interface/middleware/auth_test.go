package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/hazard-reporting/internal/application"
	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	"github.com/oksasatya/hazard-reporting/internal/domain/repository"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
)

type stubUsers map[string]*entity.User

func (s stubUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}
func (s stubUsers) GetByEmail(context.Context, string) (*entity.User, error) {
	return nil, repository.ErrNotFound
}
func (s stubUsers) GetByPhone(context.Context, string) (*entity.User, error) {
	return nil, repository.ErrNotFound
}

func gateFixture(t *testing.T) (*application.Gate, string, string) {
	t.Helper()
	jwt := helpers.NewJWTManager("secret", time.Hour, "test")
	users := stubUsers{
		"admin-1": {ID: "admin-1", Email: "admin@example.com", Role: entity.RoleAdmin},
		"rep-1":   {ID: "rep-1", Email: "rep@example.com", Role: entity.RoleReporter},
	}
	adminTok, _, err := jwt.GenerateAccessToken("admin-1")
	require.NoError(t, err)
	repTok, _, err := jwt.GenerateAccessToken("rep-1")
	require.NoError(t, err)
	return application.NewGate(jwt, users, nil), adminTok, repTok
}

func TestRequire(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate, adminTok, repTok := gateFixture(t)
	calls := 0
	r := gin.New()
	r.PATCH("/reports/:id/status", Require(gate, entity.RoleAdmin), func(c *gin.Context) {
		calls++
		id, ok := IdentityFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.UserID)
	})

	do := func(setup func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/reports/r-1/status", nil)
		setup(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(func(*http.Request) {})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)

	w = do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer garbage") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+repTok) })
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"forbidden"`)
	assert.Zero(t, calls)

	w = do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+adminTok) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-1", w.Body.String())

	w = do(func(req *http.Request) { req.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: adminTok}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, calls)
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate, _, repTok := gateFixture(t)
	r := gin.New()
	r.POST("/reports", OptionalAuth(gate), func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.UserID)
	})

	for _, tc := range []struct{ header, want string }{
		{"", "anonymous"},
		{"Bearer " + repTok, "rep-1"},
		{"Bearer expired-or-bad", "anonymous"},
	} {
		req := httptest.NewRequest(http.MethodPost, "/reports", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Body.String())
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(application.KindValidation))
	assert.Equal(t, http.StatusConflict, HTTPStatus(application.KindInvalidTransition))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(application.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(application.KindUpstream))
}
