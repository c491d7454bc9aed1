package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/mess-suite/mess-web/internal/app/models"
	"github.com/mess-suite/mess-web/internal/app/observability/metrics"
	"github.com/mess-suite/mess-web/internal/app/session"
	"github.com/mess-suite/mess-web/internal/app/upstream"
)

// SessionContextKey is where the gate stores the request-scoped session.
const SessionContextKey = "session"

// TokenVerifier is the slice of the upstream client the auth gate needs.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*upstream.VerifyResult, error)
}

// RequestIDMiddleware assigns every request an id, exposed to handlers and
// echoed back to the caller.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-Id", requestID)
		c.Next()
	}
}

// CORSMiddleware handles CORS headers
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("X-XSS-Protection", "1; mode=block")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// RequireAuth is the token gate every authenticated page passes through
// before its data handlers run. With no persisted token it fails without a
// network call; otherwise the token goes to the backend's verify endpoint.
// Any verification failure, including an unreachable backend, clears the
// persisted session and redirects to login. On success the request-scoped
// session is populated from the verify response, never from persisted state.
func RequireAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := session.Token(c)
		if token == "" {
			recordVerification(c, "missing")
			redirectToLogin(c)
			return
		}

		result, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			recordVerification(c, "rejected")
			logger.Warn("Token verification failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			if err := session.Clear(c); err != nil {
				logger.Error("Failed to clear session", zap.Error(err))
			}
			redirectToLogin(c)
			return
		}

		role, err := models.ParseRole(result.Role)
		if err != nil {
			recordVerification(c, "bad_role")
			logger.Warn("Verify response carried an unknown role",
				zap.String("username", result.Username),
				zap.Error(err))
			if err := session.Clear(c); err != nil {
				logger.Error("Failed to clear session", zap.Error(err))
			}
			redirectToLogin(c)
			return
		}

		recordVerification(c, "ok")
		c.Set(SessionContextKey, models.Session{
			IsLoggedIn: true,
			Username:   result.Username,
			Role:       role,
		})
		c.Next()
	}
}

// RequireAdmin layers a second-stage authorization decision on top of the
// auth gate: authenticated non-admins are sent to the default landing page,
// not to login, and their session is preserved.
func RequireAdmin(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFromContext(c)
		if !ok {
			redirectToLogin(c)
			return
		}
		if !sess.Role.IsAdmin() {
			logger.Warn("Admin page refused",
				zap.String("username", sess.Username),
				zap.String("role", sess.Role.String()),
				zap.String("path", c.Request.URL.Path))
			if wantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":    models.ErrForbidden.Error(),
					"redirect": "/dashboard",
				})
				return
			}
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFromContext extracts the session the auth gate stored.
func SessionFromContext(c *gin.Context) (models.Session, bool) {
	v, exists := c.Get(SessionContextKey)
	if !exists {
		return models.Session{}, false
	}
	sess, ok := v.(models.Session)
	return sess, ok
}

// redirectToLogin handles both browser navigations and fetch-style requests.
func redirectToLogin(c *gin.Context) {
	if wantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":    models.ErrUnauthenticated.Error(),
			"redirect": "/login",
		})
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func recordVerification(c *gin.Context, outcome string) {
	metrics.Get().TokenVerificationsTotal.Add(c.Request.Context(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}
