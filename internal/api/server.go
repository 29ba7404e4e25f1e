// Package api exposes the risk classifier, the recommendation engine and the
// query orchestrator over REST.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/riskwise/internal/advisor"
	"github.com/ajitpratap0/riskwise/internal/assistant"
	"github.com/ajitpratap0/riskwise/internal/metrics"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// HealthChecker is an optional backing service reported by /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps are the engines the handlers serve. They are built once by the caller.
type Deps struct {
	Classifier   *risk.Classifier
	Analyzer     *risk.Analyzer
	Advisor      *advisor.Engine
	Orchestrator *assistant.Orchestrator

	// Optional; nil means not configured
	Database      HealthChecker
	Cache         HealthChecker
	Consultations ConsultationReader
}

// Config contains server configuration
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	Auth           *AuthConfig
	Version        string
}

// queryWriteTimeout covers /query, which makes several language-model calls in sequence
const queryWriteTimeout = 5 * time.Minute

// Server represents the REST API server
type Server struct {
	router    *gin.Engine
	deps      Deps
	version   string
	startedAt time.Time
	addr      string
	server    *http.Server
}

// NewServer creates a new API server
func NewServer(config Config, deps Deps) *Server {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware())
	router.Use(metrics.GinMiddleware())

	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	s := &Server{
		router:    router,
		deps:      deps,
		version:   config.Version,
		startedAt: time.Now(),
		addr:      fmt.Sprintf("%s:%d", config.Host, config.Port),
	}

	s.setupRoutes(NewAuthenticator(config.Auth))

	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: queryWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping API server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
	}

	return nil
}

// LoggerMiddleware logs every request and attaches the global logger to the
// request context so fallbacks taken while serving it are logged there
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Request = c.Request.WithContext(log.Logger.WithContext(c.Request.Context()))

		c.Next()

		latency := time.Since(start)
		logEvent := log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP())

		if len(c.Errors) > 0 {
			logEvent.Str("errors", c.Errors.String())
		}

		logEvent.Msg("API request")
	}
}
