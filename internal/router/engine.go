package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/container"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/interface/middleware"
)

// NewEngine returns a gin engine with the global middleware installed and
// every module registered.
func NewEngine(c *container.Container) *gin.Engine {
	cfg := c.Config

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		c.Logger.WithError(err).Warn("invalid TRUSTED_PROXIES, trusting no proxies")
		_ = r.SetTrustedProxies(nil)
	}
	r.TrustedPlatform = trustedPlatform(cfg.TrustedPlatform)

	r.Use(middleware.Recovery(c.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
	}
	r.Use(cors.New(corsConfig(cfg.CORSOrigins())))
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(c.Logger))
	}

	reg := NewRegistry(r)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}

// trustedPlatform maps TRUSTED_PLATFORM to the header gin reads the client
// IP from. Any other non-empty value is taken as the header name.
func trustedPlatform(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return ""
	case "cloudflare":
		return gin.PlatformCloudflare
	case "google":
		return gin.PlatformGoogleAppEngine
	default:
		return strings.TrimSpace(v)
	}
}

// corsConfig allows every origin when origins is empty.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
