package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/internal/application"
	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	"github.com/oksasatya/hazard-reporting/internal/interface/middleware"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
	"github.com/oksasatya/hazard-reporting/pkg/response"
	"github.com/oksasatya/hazard-reporting/pkg/validation"
)

type AuthHandler struct {
	Auth    *application.AuthService
	Cookies *helpers.SessionCookie
	Logger  *logrus.Logger
}

func NewAuthHandler(auth *application.AuthService, cookies *helpers.SessionCookie, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookies: cookies, Logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type otpRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required,otpcode"`
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.Auth.LoginWithCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	h.Cookies.Set(c, res.AccessToken, res.ExpiresAt)
	response.Success(c, http.StatusOK, res, "logged in", nil)
}

// RequestOTP POST /api/otp/request
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Auth.RequestOTP(c.Request.Context(), req.Phone); err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"status": entity.OTPPending}, "verification code sent", nil)
}

// VerifyOTP POST /api/otp/verify
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.Auth.LoginWithOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		middleware.WriteError(c, h.Logger, err)
		return
	}
	h.Cookies.Set(c, res.AccessToken, res.ExpiresAt)
	response.Success(c, http.StatusOK, res, "logged in", nil)
}

// Logout POST /api/logout. The server keeps no session; only the cookie is cleared.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, nil, "logged out", nil)
}

// Me GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		middleware.WriteError(c, h.Logger, application.ErrUnauthorized)
		return
	}
	s := application.SessionFor(&entity.User{ID: id.UserID, Email: id.Email, Phone: id.Phone, Role: id.Role})
	response.Success(c, http.StatusOK, s, "ok", nil)
}

func bindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "validation_failed", "invalid input", validation.ToDetails(err))
}
