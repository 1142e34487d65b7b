// Package health provides liveness and API root endpoints.
package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler reports service health.
func Handler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// RootHandler identifies the API.
func RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "NoSmoke API", "version": "1.0.0"})
}
