package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfeed/inkfeed/internal/blog"
	"github.com/inkfeed/inkfeed/pkg/logger"
)

// respondError maps the shared error taxonomy onto HTTP statuses. Upstream
// causes are logged server-side and never leaked to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, blog.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, blog.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.Is(err, blog.ErrEmailUnverified):
		c.JSON(http.StatusForbidden, gin.H{"error": "email not verified"})
	case errors.Is(err, blog.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, blog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, blog.ErrUpstream):
		logger.Errorf("upstream failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream service failure"})
	default:
		logger.Errorf("unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
