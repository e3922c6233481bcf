package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/response"
)

// CtxUserIDKey holds the authenticated user's id in the Gin context.
const CtxUserIDKey = "userID"

const (
	msgNotLoggedIn  = "Not authorised. Please log in."
	msgInvalidToken = "Invalid or expired token."
	msgUserGone     = "User no longer exists."
)

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// Auth requires an "Authorization: Bearer <token>" header naming an existing
// user. It sets userID in the Gin context on success.
func Auth(authn Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, msgNotLoggedIn)
			return
		}

		u, err := authn.Authenticate(c.Request.Context(), token)
		switch {
		case errors.Is(err, application.ErrInvalidToken):
			response.Abort(c, http.StatusUnauthorized, msgInvalidToken)
			return
		case errors.Is(err, application.ErrUserGone):
			response.Abort(c, http.StatusUnauthorized, msgUserGone)
			return
		case err != nil:
			if logger != nil {
				logger.WithError(err).WithField("request_id", c.GetString(CtxRequestIDKey)).Error("authenticate request")
			}
			response.Abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(CtxUserIDKey, u.ID)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
