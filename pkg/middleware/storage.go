package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/context"
	"github.com/imap-mag/magvault/pkg/internal/storage"
)

// StorageMiddleware injects the storage manager into the request context.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
