package router

import (
	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/internal/handle"
)

// RegisterRecordsRoutes binds the file version routes.
func RegisterRecordsRoutes(g *gin.RouterGroup) {
	recordsRoutes := g.Group("/records")
	{
		// Publish a work area file as the next version of its key.
		recordsRoutes.POST("", handle.PublishRecord)

		// Query by logical key (key fields as query parameters).
		recordsRoutes.GET("/families", handle.ListFamilies)
		recordsRoutes.GET("/latest", handle.LatestRecord)
		recordsRoutes.GET("/history", handle.HistoryRecords)
		recordsRoutes.GET("/versions/:version", handle.GetRecord)
		recordsRoutes.GET("/resolve", handle.ResolveRecord)
		recordsRoutes.GET("/versions/:version/download", handle.DownloadRecord)

		// Lifecycle.
		recordsRoutes.DELETE("", handle.DeleteRecord)
		recordsRoutes.POST("/undelete", handle.UndeleteRecord)
	}
}
