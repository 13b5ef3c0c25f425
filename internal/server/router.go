// Package server builds the HTTP router of the audit log read API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"entityaudit/internal/audit"
	"entityaudit/internal/handlers"
	"entityaudit/internal/middleware"
	"entityaudit/internal/services"

	_ "entityaudit/internal/docs" // Import swagger docs
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Store         audit.Store
	StoreName     string
	JWTSecret     string
	MetricsAPIKey string
	Gatherer      prometheus.Gatherer
}

// NewRouter builds the gin engine.
func NewRouter(d Deps) *gin.Engine {
	auditLogHandler := handlers.NewAuditLogHandler(services.NewAuditLogService(d.Store))
	healthHandler := handlers.NewHealthHandler(d.StoreName)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", healthHandler.Health)

	if d.Gatherer != nil {
		router.GET("/metrics", middleware.APIKeyMiddleware(d.MetricsAPIKey),
			gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(d.JWTSecret))

	logs := protected.Group("/audit-logs")
	logs.GET("", auditLogHandler.GetRecentLogs)
	logs.GET("/:subject_type", auditLogHandler.GetSubjectLogs)
	logs.GET("/:subject_type/:subject_id", auditLogHandler.GetSubjectLogs)

	return router
}
