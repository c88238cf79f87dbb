package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/logger"
)

// ErrorTemplate is the page rendered for every error status
const ErrorTemplate = "error.html"

// RenderError renders the error page with status and message
func RenderError(c *gin.Context, status int, message string) {
	c.HTML(status, ErrorTemplate, gin.H{
		"Title":     http.StatusText(status),
		"Principal": CurrentPrincipal(c),
		"Status":    status,
		"Message":   message,
	})
}

// HandleError maps service errors onto error pages. Validation errors that
// belong to a form are expected to be handled by the controller before this.
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		RenderError(c, http.StatusNotFound, apperrors.MsgNotFound)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		RenderError(c, http.StatusForbidden, apperrors.MsgForbidden)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		RenderError(c, http.StatusUnauthorized, apperrors.MsgInvalidCredentials)
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		RenderError(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
		RenderError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
	}
	c.Abort()
}

// NotFound renders the 404 page for unknown routes
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		RenderError(c, http.StatusNotFound, apperrors.MsgNotFound)
	}
}

// Recovery turns panics into the 500 page
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		RenderError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		c.Abort()
	})
}
