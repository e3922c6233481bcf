package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/Malcolm-Mukorera/campus-events-api/internal/interface/http"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/metrics"
)

// SystemModule serves the health message and, when enabled, /metrics.
type SystemModule struct {
	MetricsEnabled bool
}

func (m *SystemModule) Register(rg *gin.RouterGroup) {
	rg.GET("/", handlers.Health)
	if m.MetricsEnabled {
		rg.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
}
