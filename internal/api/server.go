package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/stratoslabs/dircore/internal/api/handlers"
	"github.com/stratoslabs/dircore/internal/api/middleware"
	"github.com/stratoslabs/dircore/internal/config"
	"github.com/stratoslabs/dircore/internal/monitoring"
	"github.com/stratoslabs/dircore/internal/repo/directory"
	"github.com/stratoslabs/dircore/internal/services"
	"github.com/stratoslabs/dircore/pkg/cache"
	"github.com/stratoslabs/dircore/pkg/logger"
)

// Version is the service version reported by health endpoints and metrics.
const Version = "v1.0.0"

type Server struct {
	config     *config.Config
	logger     logger.Logger
	cache      cache.Valkey
	store      directory.Store
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(
	cfg *config.Config,
	log logger.Logger,
	valkeyCache cache.Valkey,
	store directory.Store,
	invalidator directory.Invalidator,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config: cfg,
		logger: log,
		cache:  valkeyCache,
		store:  store,
		router: router,
	}

	server.setupMiddleware()
	server.setupRoutes(invalidator)

	return server
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// CORS for admin UI communication
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))

	// Request logging
	s.router.Use(middleware.RequestLogger(s.logger))

	// Prometheus request metrics
	s.router.Use(monitoring.HTTPMetricsMiddleware())

	// Per-tenant rate limiting using Valkey counters
	if s.config.RateLimit.Enabled {
		s.router.Use(middleware.RateLimiter(s.cache, s.config.RateLimit))
	}

	// Authentication (can be disabled via config.auth.enabled)
	if s.config.Auth.Enabled {
		s.router.Use(middleware.AuthMiddleware(s.config.Auth))
	} else {
		s.logger.Warn("Authentication is DISABLED by configuration; requests will use anonymous superuser context")
	}

	// OpenAPI specification + Swagger UI (visit /swagger/index.html)
	s.router.StaticFile("/api/openapi.yaml", "api/openapi.yaml")
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/api/openapi.yaml")))

	// Prometheus metrics endpoint
	if s.config.Monitoring.Enabled {
		monitoring.SetupPrometheusMetrics(s.router, Version)
	}
}

func (s *Server) setupRoutes(invalidator directory.Invalidator) {
	healthHandler := handlers.NewHealthHandler(s.store, s.cache, Version, s.logger)

	// Public health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	// Root redirect to Swagger UI for convenience
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	// API v1 group
	v1 := s.router.Group("/api/v1")

	provisioningService := services.NewProvisioningService(s.store, invalidator, s.logger)
	organizationHandler := handlers.NewOrganizationHandler(provisioningService, s.logger)
	v1.POST("/organizations/provision", organizationHandler.Provision)

	principalHandler := handlers.NewPrincipalHandler(s.store, s.logger)
	v1.GET("/principals/:id", principalHandler.GetPrincipal)

	// Unknown routes and methods answer JSON, not gin's default plain text
	s.router.HandleMethodNotAllowed = true
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status": "error",
			"error":  "Endpoint not found",
			"path":   c.Request.URL.Path,
		})
	}
	s.router.NoRoute(notFound)
	s.router.NoMethod(notFound)
}

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("DIRCORE REST API server starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down DIRCORE gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the underlying Gin engine so tests (or embedders) can mount it.
func (s *Server) Handler() http.Handler {
	return s.router
}
