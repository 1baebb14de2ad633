package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"whisper-scribe/internal/api/middleware"
	"whisper-scribe/internal/api/v1/dto"
	v1routes "whisper-scribe/internal/api/v1/routes"
	"whisper-scribe/internal/api/v1/services"
	"whisper-scribe/internal/app/logging"
	"whisper-scribe/internal/app/metrics"
)

// Config represents API server configuration
type Config struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
	Version      string
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	jobs       *services.JobService
	logger     *zap.Logger
	errs       chan error
}

// NewServer creates a new API server. A nil gatherer disables /metrics.
func NewServer(
	config Config,
	jobs *services.JobService,
	gatherer prometheus.Gatherer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	logger = logging.OrNop(logger)

	// Set Gin mode based on environment
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogging(logger, m))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.HealthResponse{
			Status:    "healthy",
			Version:   config.Version,
			Timestamp: time.Now().UTC(),
			Jobs:      jobs.ActiveJobs(),
		})
	})

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		v1routes.RegisterRoutes(v1, &v1routes.ServiceContainer{JobService: jobs})
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "whisper-scribe API",
			"version": config.Version,
			"endpoints": gin.H{
				"health":         "/health",
				"metrics":        "/metrics",
				"transcriptions": "/api/v1/transcriptions",
				"estimate":       "/api/v1/estimate",
			},
		})
	})

	addr := fmt.Sprintf("%s:%s", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config:     config,
		router:     router,
		httpServer: httpServer,
		jobs:       jobs,
		logger:     logger,
		errs:       make(chan error, 1),
	}
}

// Start starts the API server in the background. Listen failures are
// delivered on Errors.
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("host", s.config.Host),
		zap.String("port", s.config.Port),
		zap.String("environment", s.config.Environment),
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Failed to start server", zap.Error(err))
			s.errs <- err
		}
	}()

	s.logger.Info("API server started successfully", zap.String("address", s.httpServer.Addr))
	return nil
}

// Errors reports a failure of the listener started by Start.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Shutdown stops accepting requests, then cancels running jobs and waits
// for them until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	if err := s.jobs.Shutdown(ctx); err != nil {
		s.logger.Warn("Jobs still running at shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("API server shutdown complete")
	return nil
}

// Router returns the Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
