package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope for single-resource and message responses.
// Every body carries "success"; list, auth and RSVP responses embed their
// own extra top-level fields in dedicated structs.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Success writes {success:true, message, data}.
func Success[T any](ctx *gin.Context, status int, data T, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Message writes {success:true, message} without a data field.
func Message(ctx *gin.Context, status int, message string) {
	Success[any](ctx, status, nil, message)
}

// Error writes {success:false, message, errors?}.
func Error(ctx *gin.Context, status int, message string, errs interface{}) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.JSON(status, ErrorResponse{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

// Abort writes the error body and stops the handler chain.
func Abort(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{Success: false, Message: message})
}
