package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/Malcolm-Mukorera/campus-events-api/internal/interface/http"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/interface/middleware"
)

// EventModule wires the event routes.
// Public: GET /api/events, GET /api/events/:id (cached when Redis is configured)
// Protected: POST /api/events, PUT /api/events/:id, DELETE /api/events/:id,
// POST /api/events/:id/rsvp
type EventModule struct {
	Handler     *handlers.EventHandler
	Auth        gin.HandlerFunc
	UserLimiter middleware.Limiter
	Allow       middleware.AllowFunc
	RDB         *redis.Client
	CacheTTL    time.Duration
	Logger      *logrus.Logger
}

func (m *EventModule) Register(rg *gin.RouterGroup) {
	events := rg.Group("/events")

	cache := middleware.ResponseCache(m.RDB, m.CacheTTL, m.Logger)
	events.GET("", cache, m.Handler.List)
	events.GET("/:id", cache, m.Handler.Get)

	protected := events.Group("")
	protected.Use(
		m.Auth,
		middleware.RateLimit(m.UserLimiter, middleware.KeyByUserID(), m.Allow),
		middleware.InvalidateCache(m.RDB, m.Logger),
	)
	{
		protected.POST("", m.Handler.Create)
		protected.PUT("/:id", m.Handler.Update)
		protected.DELETE("/:id", m.Handler.Delete)
		protected.POST("/:id/rsvp", m.Handler.ToggleRSVP)
	}
}
