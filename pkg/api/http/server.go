package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/dropship/internal/application/orchestrator"
	"github.com/aescanero/dropship/internal/application/policy"
	"github.com/aescanero/dropship/internal/application/workers"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/aescanero/dropship/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Orchestrator is the part of the orchestrator manager the API drives
type Orchestrator interface {
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) ([]orchestrator.RunnerResult, error)
	Running() bool
	State() orchestrator.State
	StartedAt() time.Time
	Status() []domain.WorkflowStatus
	WorkflowStatus(name string) (domain.WorkflowStatus, error)
	Health() *workers.HealthStatus
}

// PolicyView exposes the current policy snapshot
type PolicyView interface {
	Snapshot() policy.Snapshot
}

// PolicyReloader applies stored overrides immediately
type PolicyReloader interface {
	Reload(ctx context.Context) error
}

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	server       *http.Server
	orchestrator Orchestrator
	policy       PolicyView
	overrides    ports.PolicySource
	reloader     PolicyReloader
	statuses     ports.StatusStore
	stopTimeout  time.Duration
	apiToken     string
	logger       *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port         int
	Orchestrator Orchestrator
	Policy       PolicyView

	// PolicySource and PolicyReloader enable PUT /api/v1/policy. Optional.
	PolicySource   ports.PolicySource
	PolicyReloader PolicyReloader

	// Statuses serves the persisted workflow statuses. Optional.
	Statuses ports.StatusStore

	// StopTimeout bounds POST /api/v1/automation/stop
	StopTimeout time.Duration

	// APIToken, when set, is required as a bearer token on /api/v1
	APIToken string

	// MetricsHandler defaults to the default Prometheus registry
	MetricsHandler http.Handler

	Logger *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 30 * time.Second
	}
	if cfg.MetricsHandler == nil {
		cfg.MetricsHandler = promhttp.Handler()
	}

	s := &Server{
		router:       router,
		orchestrator: cfg.Orchestrator,
		policy:       cfg.Policy,
		overrides:    cfg.PolicySource,
		reloader:     cfg.PolicyReloader,
		statuses:     cfg.Statuses,
		stopTimeout:  cfg.StopTimeout,
		apiToken:     cfg.APIToken,
		logger:       cfg.Logger,
	}

	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(cfg *Config) {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))

	// API v1
	v1 := s.router.Group("/api/v1")
	v1.Use(AuthMiddleware(s.apiToken))
	{
		// Automation lifecycle
		v1.POST("/automation/start", s.handleStart)
		v1.POST("/automation/stop", s.handleStop)
		v1.GET("/automation/status", s.handleStatus)

		// Workflows
		v1.GET("/workflows", s.handleListWorkflows)
		v1.GET("/workflows/:name", s.handleGetWorkflow)
		v1.GET("/statuses", s.handleListStoredStatuses)

		// Policy
		v1.GET("/policy", s.handleGetPolicy)
		v1.PUT("/policy", s.handleUpdatePolicy)
	}
}

// EventStreamer streams bus events over a websocket
type EventStreamer interface {
	HandleEventStream(*gin.Context)
}

// SetupWebSocket adds the event stream handler to the server
func (s *Server) SetupWebSocket(handler EventStreamer) {
	s.router.GET("/api/v1/events/ws", AuthMiddleware(s.apiToken), handler.HandleEventStream)
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// requestLogger is a middleware for request logging
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
