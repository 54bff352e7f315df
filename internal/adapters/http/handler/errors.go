package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"luckyspot/internal/domain"
)

// StatusFor maps a domain error to an HTTP status by its kind.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidCapacity),
		errors.Is(err, domain.ErrInvalidWinners),
		errors.Is(err, domain.ErrMissingUID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransient):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError answers with the domain error's own message. The wrapped chain,
// which may carry backend detail, only goes to the log.
func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	var de *domain.Error
	if status == http.StatusInternalServerError || !errors.As(err, &de) {
		slog.ErrorContext(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
		return
	}
	if status >= http.StatusInternalServerError {
		slog.WarnContext(c.Request.Context(), "request failed", "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": de.Error(), "code": de.Code()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "bad_request"})
}
