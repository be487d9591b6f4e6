package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/variantsync/api/handler"
	"github.com/use-agent/variantsync/api/middleware"
	"github.com/use-agent/variantsync/config"
	"github.com/use-agent/variantsync/jobs"
	"github.com/use-agent/variantsync/pricing"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so local monitoring probes always work.
func NewRouter(runner *jobs.Runner, inferer *pricing.Inferer, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(runner.Store(), startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Runs
	protected.POST("/runs", handler.PostRun(runner, cfg.Adjust.MaxPages))
	protected.GET("/runs/:id", handler.GetRun(runner.Store()))

	// Pure pricing functions
	protected.POST("/classify", handler.Classify())
	protected.POST("/normalize", handler.Normalize())
	protected.POST("/suggest", handler.Suggest(inferer))

	return r
}
