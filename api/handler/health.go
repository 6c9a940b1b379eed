package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/lyftr/models"
	"github.com/use-agent/lyftr/scraper"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// StatsProvider reports browser session usage. *scraper.Browser satisfies it.
type StatsProvider interface {
	Stats() scraper.SessionStats
}

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when more than 80% of browser sessions are busy. A nil
// provider means the browser is disabled; static scraping still works, so
// the service stays healthy.
func Health(sp StatsProvider, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats models.SessionStats
		if sp != nil {
			s := sp.Stats()
			stats = models.SessionStats{MaxSessions: s.MaxSessions, ActiveSessions: s.ActiveSessions}
		}

		status := "healthy"
		if stats.MaxSessions > 0 && stats.ActiveSessions > int(float64(stats.MaxSessions)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			SessionStats: stats,
			Version:      Version,
		})
	}
}
