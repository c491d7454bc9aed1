package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mess-suite/mess-web/internal/app/upstream"
	"github.com/mess-suite/mess-web/internal/pkg/config"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	client *upstream.HTTPClient
	router http.Handler
}

// New creates a new Server instance with all dependencies
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	client := upstream.NewHTTPClient(cfg.Upstream, logger)
	logger.Info("Connected to billing backend", zap.String("base_url", cfg.Upstream.BaseURL))

	return &Server{
		cfg:    cfg,
		logger: logger,
		client: client,
	}, nil
}

// HTTPServer creates and configures the HTTP server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.ServerPort,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// Client returns the backend client
func (s *Server) Client() *upstream.HTTPClient {
	return s.client
}

// GetLogger returns the logger instance
func (s *Server) GetLogger() *zap.Logger {
	return s.logger
}

// GetConfig returns the configuration
func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

// Close closes all server resources
func (s *Server) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
