// Package api exposes the HTTP control surface for routing schemes, content
// filters, ingest providers and routing history.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/newsdesk/ingest-router/internal/config"
	"github.com/newsdesk/ingest-router/internal/database"
)

const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
	serviceVersion       = "1.0.0"
)

// Router holds the API dependencies
type Router struct {
	repo        *database.Repository
	redisClient *redis.Client
	registry    *prometheus.Registry
	cfg         *config.Config
}

// NewRouter creates a new API router
func NewRouter(repo *database.Repository, redisClient *redis.Client, registry *prometheus.Registry, cfg *config.Config) *Router {
	return &Router{
		repo:        repo,
		redisClient: redisClient,
		registry:    registry,
		cfg:         cfg,
	}
}

// SetupRoutes builds the gin engine with middleware, health and service
// routes.
func (r *Router) SetupRoutes() *gin.Engine {
	// Set Gin mode based on config
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Health check (public, no auth)
	router.GET("/healthz", r.healthCheck)

	if r.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))
	}

	r.setupServiceRoutes(router)

	return router
}

// setupServiceRoutes configures the API v1 routes.
func (r *Router) setupServiceRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Routing schemes
	schemes := v1.Group("/schemes")
	schemes.GET("", r.listSchemes)
	schemes.POST("", r.createScheme)
	schemes.GET("/:id", r.getScheme)
	schemes.PUT("/:id", r.updateScheme)
	schemes.DELETE("/:id", r.deleteScheme)

	// Content filters
	filters := v1.Group("/filters")
	filters.GET("", r.listFilters)
	filters.POST("", r.createFilter)
	filters.GET("/:id", r.getFilter)
	filters.PUT("/:id", r.updateFilter)
	filters.DELETE("/:id", r.deleteFilter)

	// Ingest providers
	providers := v1.Group("/providers")
	providers.GET("", r.listProviders)
	providers.POST("", r.createProvider)
	providers.GET("/:id", r.getProvider)
	providers.PUT("/:id", r.updateProvider)
	providers.DELETE("/:id", r.deleteProvider)

	// Routing history
	history := v1.Group("/history")
	history.GET("", r.listHistory)
}

// healthCheck returns the service health status
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":  healthStatusHealthy,
		"service": "ingest-router",
		"version": serviceVersion,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	if err := r.repo.Ping(ctx); err != nil {
		health["status"] = healthStatusDegraded
		health["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if r.redisClient != nil {
		if err := r.redisClient.Ping(ctx).Err(); err != nil {
			health["status"] = healthStatusDegraded
			health["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, health)
}
