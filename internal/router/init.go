package router

import (
	"github.com/oksasatya/hazard-reporting/internal/container"
	handlers "github.com/oksasatya/hazard-reporting/internal/interface/http"
	"github.com/oksasatya/hazard-reporting/internal/interface/middleware"
	"github.com/oksasatya/hazard-reporting/internal/router/modules"
)

// InitModules builds handlers from the container and adds every feature module.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	limiter := middleware.NewLimiter(c.Redis, c.Logger)

	r.Add(
		modules.NewAuthModule(handlers.NewAuthHandler(c.AuthService, c.Cookies, c.Logger), c.Gate, limiter),
		modules.NewReportModule(handlers.NewReportHandler(c.ReportService, c.Logger), c.Gate, limiter),
		modules.NewHealthModule(c.Checks(), limiter, c.Config.DebugMetricsEnabled),
	)
}
