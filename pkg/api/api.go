// Package api mounts the HTTP surface onto a gin engine.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/internal/router"
)

// RegisterGroup registers all route groups under /api/v1.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	router.Register(e.Group("/api/v1"))

	return e
}
