package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type authResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userJSON  `json:"user"`
}

func writeAuth(c *gin.Context, status int, res *application.AuthResult) {
	c.JSON(status, authResponse{
		Success:   true,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC(),
		User:      toUserJSON(res.User),
	})
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req application.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.Logger, err, "", "Server error during registration.")
		return
	}
	writeAuth(c, http.StatusCreated, res)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req application.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.Logger, err, "", "Server error during login.")
		return
	}
	writeAuth(c, http.StatusOK, res)
}
