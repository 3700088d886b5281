package router

import (
	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/internal/handle"
)

// RegisterSchedulerRoutes binds the scheduler management routes.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	g.GET("/scheduler/jobs", handle.SchedulerJobs)

	g.POST("/scheduler/jobs/stop", handle.SchedulerStopJobs)

	g.DELETE("/scheduler/jobs/:id", handle.SchedulerRemoveJob)

	g.GET("/scheduler/queue/waiting", handle.SchedulerQueueWaiting)
}
