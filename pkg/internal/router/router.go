// Package router binds the API routes to the gin engine. Handler
// implementations live in pkg/internal/handle.
package router

import (
	"github.com/gin-gonic/gin"
)

// Register wires every route group onto the given base group.
func Register(g *gin.RouterGroup) {
	RegisterRecordsRoutes(g)
	RegisterRetentionRoutes(g)
	RegisterHealthCheckRoute(g)
	RegisterSchedulerRoutes(g)
}
