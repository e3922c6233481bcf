package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/pkg/response"
)

// Recovery turns a panic into a 500 JSON body and logs the panic value.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"panic":      recovered,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(CtxRequestIDKey),
		}).Error("panic recovered")
		response.Abort(c, http.StatusInternalServerError, "Internal server error")
	})
}
