package httpapi

import (
	"errors"
	"net/http"

	"disaster-platform/internal/disaster"
	"disaster-platform/internal/lookup"
	"disaster-platform/internal/resource"
	"disaster-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// abortWithError maps service sentinels to HTTP statuses. Anything
// unrecognized is a storage or internal failure and stays opaque to the
// caller.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, disaster.ErrNotFound), errors.Is(err, lookup.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, disaster.ErrInvalidArgument), errors.Is(err, resource.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid argument"})
	case errors.Is(err, lookup.ErrUpstreamTimeout):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "upstream timeout"})
	case errors.Is(err, lookup.ErrUpstream):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "upstream failure"})
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
