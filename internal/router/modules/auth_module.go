package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/Malcolm-Mukorera/campus-events-api/internal/interface/http"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/interface/middleware"
)

// AuthModule serves POST /api/auth/register and POST /api/auth/login.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Limiter middleware.Limiter
	Allow   middleware.AllowFunc
}

func NewAuthModule(h *handlers.AuthHandler, limiter middleware.Limiter, allow middleware.AllowFunc) *AuthModule {
	return &AuthModule{Handler: h, Limiter: limiter, Allow: allow}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// per IP and route
	limit := middleware.RateLimit(m.Limiter, middleware.KeyByIPAndPath(), m.Allow)

	rg.POST("/auth/register", limit, m.Handler.Register)
	rg.POST("/auth/login", limit, m.Handler.Login)
}
