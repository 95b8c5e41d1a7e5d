package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"expense_tracker/internal/service"
)

const (
	errInternal     = "Internal server error"
	errInvalidBody  = "invalid body: "
	errNotFound     = "Expense not found"
	errInvalidReset = "Invalid or expired token"
)

// errorResponse is the body of every non-2xx JSON answer.
type errorResponse struct {
	Error string `json:"error" example:"Invalid credentials"`
}

// messageResponse is the body of actions that return no resource.
type messageResponse struct {
	Message string `json:"message"`
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err, "request_id", c.GetString(requestIdCtx)}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, errorResponse{Error: userMsg})
}

// respondError maps service errors to HTTP responses. Anything unrecognized
// is a 500 with a generic message; details only go to the log.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	status, msg := statusFor(err)
	h.logAndJSONError(c, status, msg, logKey, err, kv...)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, service.ErrWeakPassword.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, errInvalidReset
	case errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, service.ErrMissingToken):
		return http.StatusUnauthorized, "Access token required"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusForbidden, "Invalid or expired token"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, errNotFound
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any, logKey string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidBody+err.Error(), logKey, err)
		return false
	}
	return true
}
