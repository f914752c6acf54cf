// Package handlers exposes the planning engine over HTTP.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"vault-planning/internal/apperr"
	"vault-planning/internal/auth"
	"vault-planning/internal/planning"
	"vault-planning/internal/realtime"
)

// Handler holds the collaborators shared by every endpoint.
type Handler struct {
	engine *planning.Engine
	issuer *auth.Issuer
	hub    *realtime.Hub
	log    *slog.Logger
}

// New wires a handler set. A nil logger uses slog.Default.
func New(engine *planning.Engine, issuer *auth.Issuer, hub *realtime.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, issuer: issuer, hub: hub, log: logger.With("component", "http")}
}

// statusFor maps an error code to the HTTP status returned for it.
func statusFor(code apperr.Code) int {
	switch code {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidStateTransition:
		return http.StatusConflict
	case apperr.DueDateRequired, apperr.BoardIDRequired, apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.PathOutsideVault, apperr.SymlinkNotAllowed:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes {"error", "code"} with the status matching err.
func (h *Handler) respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{
		"error": apperr.MessageOf(err),
		"code":  code,
	})
}

// bindJSON decodes the body into v, answering 400 InvalidInput on failure.
func (h *Handler) bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.Wrap(apperr.InvalidInput, err, "invalid request body: %v", err)
		}
		h.respondError(c, err)
		return false
	}
	return true
}
