// Package middleware provides the gin middlewares of the ops API.
package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// GzipMiddleware compresses responses. Index listings and history payloads
// are highly repetitive JSON.
func GzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression)
}
