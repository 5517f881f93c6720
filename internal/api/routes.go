package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.POST("/scans", handler.StartScan)
		v1.POST("/removals", handler.StartRemoval)
		v1.GET("/runs/:id/progress", handler.GetRunProgress)

		v1.GET("/audit/entries", handler.GetAuditEntries)

		orgs := v1.Group("/orgs/:org")
		{
			orgs.GET("/two-factor", handler.GetTwoFactorReport)
		}
	}

	return router
}
