package server

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mess-suite/mess-web/internal/app/middleware"
	appsession "github.com/mess-suite/mess-web/internal/app/session"
	"github.com/mess-suite/mess-web/internal/routes"
)

// SetupRouter configures and returns the Gin router with all middleware and routes
func (s *Server) SetupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(ginzap.GinzapWithConfig(s.logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
	}))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))
	r.Use(otelgin.Middleware("mess-web"))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityMiddleware())

	store := cookie.NewStore([]byte(s.cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.Session.MaxAge,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(appsession.Name, store))

	routes.Setup(r, s.client, s.logger)

	s.router = r
	return r
}

// zapContextFunc returns the Zap context function for logging. Request
// bodies are never logged here because the credential routes carry
// passwords.
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		fields := []zapcore.Field{}

		if requestID := c.Writer.Header().Get("X-Request-Id"); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}

		return fields
	}
}
