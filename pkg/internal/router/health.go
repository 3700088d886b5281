package router

import (
	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/internal/handle"
)

// RegisterHealthCheckRoute binds the health check routes.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("", handle.Health)
		healthRoutes.GET("/db", handle.HealthDB)
		healthRoutes.GET("/store", handle.HealthStore)
		healthRoutes.GET("/mq", handle.HealthMQ)
		healthRoutes.GET("/kv", handle.HealthKV)
	}
}
