package modules

import (
	"context"
	"expvar"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/hazard-reporting/internal/interface/middleware"
	"github.com/oksasatya/hazard-reporting/pkg/response"
)

// Probe reports whether one dependency is reachable.
type Probe func(ctx context.Context) error

// HealthModule serves /healthz and, when enabled, expvar under /debug/vars.
type HealthModule struct {
	Probes         map[string]Probe
	Limiter        *middleware.Limiter
	MetricsEnabled bool
	Timeout        time.Duration
}

func NewHealthModule(probes map[string]Probe, limiter *middleware.Limiter, metricsEnabled bool) *HealthModule {
	return &HealthModule{Probes: probes, Limiter: limiter, MetricsEnabled: metricsEnabled, Timeout: 2 * time.Second}
}

func (m *HealthModule) Name() string { return "health" }

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.healthz)
	if !m.MetricsEnabled {
		return
	}
	rl := m.Limiter.Limit(120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}

func (m *HealthModule) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), m.Timeout)
	defer cancel()

	names := make([]string, 0, len(m.Probes))
	for name := range m.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := m.Probes[name](ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}
	if !healthy {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", "dependency check failed", checks)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok", "checks": checks}, "ok", nil)
}
