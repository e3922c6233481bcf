package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/interface/middleware"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/response"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/validation"
)

const msgValidationFailed = "Validation failed"

// bindFailed answers a request whose body could not be decoded.
func bindFailed(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, msgValidationFailed, validation.ToDetails(err))
}

// writeError maps a service error to its status and message. forbidden is
// the message for ErrForbidden; fallback is the 500 message, and the cause
// of a 500 is logged.
func writeError(c *gin.Context, logger *logrus.Logger, err error, forbidden, fallback string) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(c, http.StatusBadRequest, msgValidationFailed, verr.Fields)
	case errors.Is(err, application.ErrEmailTaken):
		response.Error(c, http.StatusBadRequest, "An account with that email already exists.", nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "Invalid email or password.", nil)
	case errors.Is(err, application.ErrInvalidToken):
		response.Error(c, http.StatusUnauthorized, "Invalid or expired token.", nil)
	case errors.Is(err, application.ErrUserGone):
		response.Error(c, http.StatusUnauthorized, "User no longer exists.", nil)
	case errors.Is(err, application.ErrForbidden):
		response.Error(c, http.StatusForbidden, forbidden, nil)
	case errors.Is(err, application.ErrEventNotFound):
		response.Error(c, http.StatusNotFound, "Event not found.", nil)
	case errors.Is(err, application.ErrCapacityExceeded):
		response.Error(c, http.StatusBadRequest, "This event is at full capacity.", nil)
	default:
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path":       c.Request.URL.Path,
				"request_id": c.GetString(middleware.CtxRequestIDKey),
				"user_id":    c.GetString(middleware.CtxUserIDKey),
			}).Error(fallback)
		}
		response.Error(c, http.StatusInternalServerError, fallback, nil)
	}
}
