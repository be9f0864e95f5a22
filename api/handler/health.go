package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidopen/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// StatsSource reports page pool utilisation.
type StatsSource interface {
	Stats() models.PoolStats
}

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when more than 80% of pooled pages are active.
func Health(src StatsSource, storeBackend string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := src.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			PoolStats:    stats,
			StoreBackend: storeBackend,
			Version:      Version,
		})
	}
}
