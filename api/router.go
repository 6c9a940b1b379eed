package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/lyftr/api/handler"
	"github.com/use-agent/lyftr/api/middleware"
	"github.com/use-agent/lyftr/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work. ctx bounds
// background work such as rate-limiter eviction.
func NewRouter(ctx context.Context, runner handler.Runner, stats handler.StatsProvider, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(stats, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.NewLimiters(ctx, cfg.RateLimit).Middleware())

	protected.POST("/scrape", handler.Scrape(runner))

	return r
}
