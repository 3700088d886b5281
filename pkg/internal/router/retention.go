package router

import (
	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/internal/handle"
)

// RegisterRetentionRoutes binds the retention and reconciliation routes.
func RegisterRetentionRoutes(g *gin.RouterGroup) {
	retentionRoutes := g.Group("/retention")
	{
		retentionRoutes.POST("/sweep", handle.SweepRetention)
		retentionRoutes.POST("/reconcile", handle.ReconcileStore)
	}
}
