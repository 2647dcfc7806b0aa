// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"salesboard/internal/domain/reports"
	"salesboard/internal/infrastructure/cache"
	"salesboard/internal/infrastructure/http/v1/handlers"
	"salesboard/internal/infrastructure/http/v1/middleware"
	"salesboard/internal/infrastructure/storage/postgres"
	"salesboard/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Reports serves every /reports endpoint and the readiness probe
	Reports *reports.Service

	// Pool is reported by /health/info; nil for file-backed sources
	Pool *postgres.Pool

	// Cache is reported by /health/info; nil when caching is off
	Cache *cache.AnalysisCache

	// Version is reported by /health/info
	Version string

	// Compression enables zstd response encoding
	Compression bool

	// Development switches gin to debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger, "/health/live", "/health/ready"))
	if cfg.Compression {
		router.Use(middleware.Compress())
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Reports, cfg.Pool, cfg.Cache, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	registerReportRoutes(v1, cfg)

	return router
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	reportsGroup := rg.Group("/reports")
	reportHandler := handlers.NewReportsHandler(handlers.NewBaseHandler(), cfg.Reports)

	reportsGroup.GET("/sales-analysis", reportHandler.GetSalesAnalysis)
	reportsGroup.POST("/sales-analysis", reportHandler.PostSalesAnalysis)
	reportsGroup.GET("/sales-filters", reportHandler.GetSalesFilters)
	reportsGroup.GET("/sales-transactions", reportHandler.GetSalesTransactions)
	reportsGroup.GET("/sales-transactions/export", reportHandler.ExportSalesTransactions)
}
