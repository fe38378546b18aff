package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/hazard-reporting/internal/application"
	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	handlers "github.com/oksasatya/hazard-reporting/internal/interface/http"
	"github.com/oksasatya/hazard-reporting/internal/interface/middleware"
)

type ReportModule struct {
	Handler *handlers.ReportHandler
	Gate    *application.Gate
	Limiter *middleware.Limiter
}

func NewReportModule(h *handlers.ReportHandler, gate *application.Gate, limiter *middleware.Limiter) *ReportModule {
	return &ReportModule{Handler: h, Gate: gate, Limiter: limiter}
}

func (m *ReportModule) Name() string { return "reports" }

func (m *ReportModule) Register(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")

	// anonymous submissions are allowed; a valid bearer makes the caller the reporter
	reports.POST("",
		middleware.OptionalAuth(m.Gate),
		m.Limiter.Limit(20, time.Minute, middleware.KeyByUserID(), nil),
		m.Handler.Submit)

	authed := reports.Group("", middleware.Require(m.Gate))
	{
		authed.GET("", m.Handler.List)
		authed.GET("/:id", m.Handler.Get)
		authed.POST("/images", m.Limiter.Limit(10, time.Minute, middleware.KeyByUserID(), nil), m.Handler.UploadImage)
	}

	admin := reports.Group("", middleware.Require(m.Gate, entity.RoleAdmin))
	{
		admin.GET("/search", m.Handler.Search)
		admin.PATCH("/:id/status", m.Handler.UpdateStatus)
	}
}
