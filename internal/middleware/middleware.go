// Package middleware provides the gin middleware shared by every route.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillnexus/reputation-service/internal/apperrors"
	"github.com/skillnexus/reputation-service/internal/auth"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// Context keys set by the middleware.
const (
	RequestIDKey = "request_id"
	UserIDKey    = "user_id"
	RoleKey      = "role"

	RequestIDHeader = "X-Request-ID"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Identity, error)
}

// RequestID tags every request with an id, reusing the caller's when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Logger logs one line per request.
func Logger(log *logger.Logger) gin.HandlerFunc {
	httpLog := log.Component("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := httpLog.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = httpLog.Error()
		case status >= http.StatusBadRequest:
			event = httpLog.Warn()
		}

		event.
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int("size_bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the context.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "authorization header is missing")
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abortUnauthorized(c, "authorization header is malformed")
			return
		}

		identity, err := validator.ValidateAccessToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Set(RoleKey, identity.Role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    apperrors.KindUnauthorized,
			"message": message,
		},
		"timestamp": time.Now().UTC(),
	})
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Role returns the authenticated user's role.
func Role(c *gin.Context) string {
	return c.GetString(RoleKey)
}
