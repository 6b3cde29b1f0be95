package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/stringify/internal/handlers/dto"
	"github.com/thereayou/stringify/internal/services"
)

var (
	errValidation     = errors.New("validation failed")
	errNoMeetingParam = errors.New("no key value or chat id was provided")
)

// statusOf maps a service error to its HTTP status and exception type.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound, "SessionNotFound"
	case errors.Is(err, services.ErrProfileNotFound):
		return http.StatusNotFound, "ProfileNotFound"
	case errors.Is(err, services.ErrInvalidKey):
		return http.StatusBadRequest, "InvalidKey"
	case errors.Is(err, services.ErrInvalidPage):
		return http.StatusBadRequest, "InvalidPage"
	case errors.Is(err, errValidation):
		return http.StatusBadRequest, "ValidationFailed"
	case errors.Is(err, services.ErrConnectionLimitReached):
		return http.StatusServiceUnavailable, "ConnectionLimitReached"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Timeout"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

func respondError(c *gin.Context, log *slog.Logger, err error) {
	status, exceptionType := statusOf(err)
	message := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Error("Request failed", "path", c.FullPath(), "error", err)
		message = http.StatusText(status)
	} else {
		log.Warn("Request rejected", "path", c.FullPath(), "error", err)
	}

	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		ExceptionType: exceptionType,
		Message:       message,
		Status:        status,
		Timestamp:     dto.FormatDate(time.Now()),
	})
}

// badRequest reports a binding or validation failure.
func badRequest(c *gin.Context, log *slog.Logger, err error) {
	respondError(c, log, fmt.Errorf("%w: %v", errValidation, err))
}
