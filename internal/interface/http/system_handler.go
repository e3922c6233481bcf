package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Malcolm-Mukorera/campus-events-api/pkg/response"
)

// Health GET /
func Health(c *gin.Context) {
	response.Message(c, http.StatusOK, "Campus Events API is running")
}

// NotFound answers unknown routes and unsupported methods.
func NotFound(c *gin.Context) {
	response.Error(c, http.StatusNotFound, "Route not found", nil)
}
