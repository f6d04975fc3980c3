package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docquery/logger"
	"github.com/meghashyamc/docquery/services/index"
	"github.com/meghashyamc/docquery/validation"
)

const (
	messageNoFileUploaded  = "No file uploaded"
	messageInvalidJSONBody = "Invalid JSON body"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, statusCode int, message string) {
	c.Abort()
	c.JSON(statusCode, errorResponse{Error: message})
}

// statusFor maps service and validation errors to the HTTP status returned to clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, index.ErrNoDocuments),
		errors.Is(err, index.ErrNoQuestion),
		errors.Is(err, index.ErrInvalidFile),
		errors.Is(err, validation.ErrInvalidFilename),
		errors.Is(err, validation.ErrInvalidQuestion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(c *gin.Context, fallback logger.Logger) logger.Logger {
	return logger.FromContext(c.Request.Context(), fallback)
}
