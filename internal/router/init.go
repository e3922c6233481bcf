package router

import (
	"time"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/container"
	handlers "github.com/Malcolm-Mukorera/campus-events-api/internal/interface/http"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/interface/middleware"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/router/modules"
)

// rateWindow is the window RATE_LIMIT_AUTH and RATE_LIMIT_USER are counted over.
const rateWindow = time.Minute

// Services are the application services built from a container.
type Services struct {
	Auth   *application.AuthService
	Events *application.EventService
}

func BuildServices(c *container.Container) Services {
	return Services{
		Auth:   application.NewAuthService(c.Users, c.Hasher, c.Tokens, c.Notifier, c.Logger),
		Events: application.NewEventService(c.Events, c.Users, c.Index, c.Notifier, c.Logger),
	}
}

// InitModules builds every module from c and adds it to r, along with the
// 404 handlers. Call once at startup before r.RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	svc := BuildServices(c)

	// loopback and private callers skip rate limits outside production
	var allow middleware.AllowFunc = middleware.AllowPreflight()
	if !c.Config.IsProduction() {
		allow = middleware.AnyOf(allow, middleware.AllowPrivateIP())
	}

	r.AddRoot(&modules.SystemModule{MetricsEnabled: c.Config.MetricsEnabled})
	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(svc.Auth, c.Logger),
		middleware.NewLimiter(c.Redis, c.Config.RateLimitAuth, rateWindow),
		allow,
	))
	r.Add(&modules.EventModule{
		Handler:     handlers.NewEventHandler(svc.Events, c.Logger),
		Auth:        middleware.Auth(svc.Auth, c.Logger),
		UserLimiter: middleware.NewLimiter(c.Redis, c.Config.RateLimitUser, rateWindow),
		Allow:       allow,
		RDB:         c.Redis,
		CacheTTL:    c.Config.CacheTTL,
		Logger:      c.Logger,
	})

	r.Engine.NoRoute(handlers.NotFound)
	r.Engine.NoMethod(handlers.NotFound)
}
