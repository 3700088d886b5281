package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/scheduler"
)

type schedulerKey struct{}

// SchedulerMiddleware injects the scheduler into the request context.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), schedulerKey{}, sched)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetScheduler retrieves the scheduler from the request context.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	if sched, ok := c.Request.Context().Value(schedulerKey{}).(*scheduler.Scheduler); ok {
		return sched
	}

	return nil
}
