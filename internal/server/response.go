package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "taskman/internal/domain/errors"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func respondData(ctx *gin.Context, status int, message string, data any) {
	ctx.JSON(status, Response{Success: true, Message: message, Data: data})
}

func respondError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, Response{Success: false, Error: message})
}

// respondValidation rejects the request with the accumulated per-field
// messages; no business logic runs after it.
func respondValidation(ctx *gin.Context, fields map[string]string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   domain.ErrValidationFailed.Error(),
		Errors:  fields,
	})
}
