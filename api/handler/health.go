package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/importar-info/importador/models"
)

// Health returns a handler for GET /api/v1/health.
func Health(fetchOrder []string, aiEnabled bool, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     "healthy",
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			FetchOrder: fetchOrder,
			AIEnabled:  aiEnabled,
			Version:    "0.1.0",
		})
	}
}
