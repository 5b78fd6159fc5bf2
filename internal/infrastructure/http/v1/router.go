// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stocksync/internal/domain/produce"
	"stocksync/internal/infrastructure/http/v1/handlers"
	"stocksync/internal/infrastructure/http/v1/middleware"
	"stocksync/internal/infrastructure/storage/postgres"
	"stocksync/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// ProduceService materializes package orders
	ProduceService *produce.Service

	// Importer runs one import pass on demand (nil when not configured)
	Importer handlers.ImportRunner

	// Exporter runs one export on demand (nil when not configured)
	Exporter handlers.ExportRunner
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	api := router.Group("/api/v1")
	{
		produceHandler := handlers.NewProduceHandler(cfg.ProduceService)
		api.POST("/pachete", produceHandler.Produce)
		api.GET("/pachete/sql", produceHandler.Statements)

		jobsHandler := handlers.NewJobsHandler(cfg.Importer, cfg.Exporter)
		jobs := api.Group("/jobs")
		{
			jobs.POST("/import/run", jobsHandler.RunImport)
			jobs.POST("/export/run", jobsHandler.RunExport)
		}
	}

	return router
}
