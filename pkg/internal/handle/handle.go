// Package handle implements the HTTP request handlers of the ops API.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/internal/key"
	"github.com/imap-mag/magvault/pkg/internal/repository"
	"github.com/imap-mag/magvault/pkg/internal/service"
	"github.com/imap-mag/magvault/pkg/internal/types"
	"github.com/imap-mag/magvault/pkg/rule"
)

func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": "Not Implemented"})
}

// bindQueryKey parses and validates the logical key from query parameters.
func bindQueryKey(c *gin.Context) (key.LogicalKey, bool) {
	var params types.KeyParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key parameters"})

		return key.LogicalKey{}, false
	}

	if err := rule.ValidateStruct(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return key.LogicalKey{}, false
	}

	k, err := params.Key()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return key.LogicalKey{}, false
	}

	return k, true
}

// failWith maps domain errors to HTTP statuses.
func failWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, key.ErrInvalidKey),
		errors.Is(err, service.ErrChecksumMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
