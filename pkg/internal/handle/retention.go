package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/internal/service"
	"github.com/imap-mag/magvault/pkg/internal/types"
	"github.com/imap-mag/magvault/pkg/log"
)

// SweepRetention runs the configured retention tasks now.
func SweepRetention(c *gin.Context) {
	var req types.SweepRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sweep parameters"})

		return
	}

	svc := service.NewRetentionService(c.Request.Context())

	resp, err := svc.Sweep(c.Request.Context(), req)
	if err != nil {
		log.Logger().Error().Err(err).Msg("retention sweep failed")
		failWith(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ReconcileStore diffs the store tree against the index and collects
// aged orphans.
func ReconcileStore(c *gin.Context) {
	var req types.ReconcileRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reconcile parameters"})

		return
	}

	svc := service.NewReconcileService(c.Request.Context())

	resp, err := svc.Reconcile(c.Request.Context(), req)
	if err != nil {
		log.Logger().Error().Err(err).Msg("reconciliation failed")
		failWith(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
