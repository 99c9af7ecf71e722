package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleError maps application errors to HTTP responses
func (s *HTTPServerAdapter) handleError(c *gin.Context, err error) {
	var appErr *errors.AppError
	var statusCode int
	var message string

	if !stderrors.As(err, &appErr) {
		s.logError(c, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		statusCode = http.StatusBadRequest
		message = appErr.Message
	case errors.ErrorTypeNotFound:
		statusCode = http.StatusNotFound
		message = appErr.Message
	case errors.ErrorTypeGeolocation:
		statusCode = http.StatusServiceUnavailable
		message = appErr.Message
	case errors.ErrorTypeAuth, errors.ErrorTypeUnauthorized:
		statusCode = http.StatusUnauthorized
		message = appErr.Message
	case errors.ErrorTypeNetwork, errors.ErrorTypeHTTP, errors.ErrorTypeDecode:
		statusCode = http.StatusBadGateway
		message = errors.UserMessage(appErr, "")
	case errors.ErrorTypeStorage:
		s.logError(c, err)
		statusCode = http.StatusInternalServerError
		message = "Unable to save state"
	default:
		s.logError(c, err)
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	c.JSON(statusCode, ErrorResponse{Error: message})
}

func (s *HTTPServerAdapter) logError(c *gin.Context, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Error("Request failed",
		ports.F("path", c.Request.URL.Path),
		ports.F("error", err.Error()))
}

// getStats handles GET /api/stats requests
func (s *HTTPServerAdapter) getStats(c *gin.Context) {
	if s.metrics == nil {
		s.handleError(c, errors.NewNotFoundError("metrics are not enabled"))
		return
	}
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

// getHealth handles GET /health requests
func (s *HTTPServerAdapter) getHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}

	components := s.health.CheckAll(c.Request.Context())
	status := "healthy"
	code := http.StatusOK
	for _, component := range components {
		if component.Status != "healthy" {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{"status": status, "components": components})
}
