package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/hazard-reporting/internal/application"
	handlers "github.com/oksasatya/hazard-reporting/internal/interface/http"
	"github.com/oksasatya/hazard-reporting/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	Gate    *application.Gate
	Limiter *middleware.Limiter
}

func NewAuthModule(h *handlers.AuthHandler, gate *application.Gate, limiter *middleware.Limiter) *AuthModule {
	return &AuthModule{Handler: h, Gate: gate, Limiter: limiter}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// per-IP limits on the unauthenticated entry points; OTP requests cost an SMS
	perRoute := middleware.KeyByIPAndPath()
	rg.POST("/login", m.Limiter.Limit(10, time.Minute, perRoute, nil), m.Handler.Login)
	rg.POST("/otp/request", m.Limiter.Limit(3, time.Minute, perRoute, nil), m.Handler.RequestOTP)
	rg.POST("/otp/verify", m.Limiter.Limit(10, time.Minute, perRoute, nil), m.Handler.VerifyOTP)
	rg.POST("/logout", m.Handler.Logout)
	rg.GET("/me", middleware.Require(m.Gate), m.Handler.Me)
}
