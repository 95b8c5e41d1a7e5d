package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"expense_tracker/internal/service"
)

// Gin context keys.
const (
	userIdCtx    = "userId"
	userEmailCtx = "userEmail"
	requestIdCtx = "requestId"

	requestIDHeader  = "X-Request-ID"
	adminTokenHeader = "X-Admin-Token"
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
// A missing header or a wrong scheme yields service.ErrMissingToken.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", service.ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", service.ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// authenticate resolves the caller and writes 401 (no credentials) or
// 403 (credentials rejected) on failure.
func (h *Handler) authenticate(c *gin.Context, token string) (service.Claims, bool) {
	claims, err := h.services.ParseToken(token)
	if err != nil {
		status, msg := http.StatusForbidden, "Invalid or expired token"
		if errors.Is(err, service.ErrMissingToken) {
			status, msg = http.StatusUnauthorized, "Access token required"
		}
		h.log.Infow("auth_token_rejected", "status", status, "err", err, "request_id", c.GetString(requestIdCtx))
		c.AbortWithStatusJSON(status, errorResponse{Error: msg})
		return service.Claims{}, false
	}
	return claims, true
}

func (h *Handler) userIdMiddleware(c *gin.Context) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "Access token required"})
		return
	}

	claims, ok := h.authenticate(c, token)
	if !ok {
		return
	}

	// store in Gin context
	c.Set(userIdCtx, claims.UserID)
	c.Set(userEmailCtx, claims.Email)
	c.Next()
}

// currentUserID reads the id stored by userIdMiddleware.
func currentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIdCtx)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// adminMiddleware checks X-Admin-Token only when an admin token is configured.
func (h *Handler) adminMiddleware(c *gin.Context) {
	want := h.opts.AdminToken
	if want == "" {
		c.Next()
		return
	}
	got := c.GetHeader(adminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "admin token required"})
		return
	}
	c.Next()
}

// requestID propagates X-Request-ID or generates one.
func (h *Handler) requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Set(requestIdCtx, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	status := c.Writer.Status()
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", status,
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", c.GetString(requestIdCtx),
		"client_ip", c.ClientIP(),
	}
	if status >= http.StatusInternalServerError {
		h.log.Errorw("http_request", fields...)
		return
	}
	h.log.Infow("http_request", fields...)
}
