package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidopen/api/handler"
	"github.com/use-agent/vidopen/api/middleware"
	"github.com/use-agent/vidopen/cache"
	"github.com/use-agent/vidopen/config"
	"github.com/use-agent/vidopen/opener"
	"github.com/use-agent/vidopen/store"
	"github.com/use-agent/vidopen/webhook"
)

// Services are the collaborators the routes are built on. Cache and
// Webhook may be nil.
type Services struct {
	Pages    handler.Loader
	Stats    handler.StatsSource
	Selector *store.SelectorStore
	Opener   opener.Opener
	Cache    *cache.Cache
	Webhook  *webhook.Sender
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(svc Services, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(svc.Stats, cfg.Store.Backend, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Selector
	protected.GET("/selector", handler.GetSelector(svc.Selector))
	protected.PUT("/selector", handler.PutSelector(svc.Selector, svc.Webhook))
	protected.DELETE("/selector", handler.DeleteSelector(svc.Selector, svc.Webhook))

	// Resolution
	rv := &handler.Resolver{
		Loader:   svc.Pages,
		Selector: svc.Selector,
		Cache:    svc.Cache,
		Webhook:  svc.Webhook,
	}
	protected.POST("/resolve", handler.Resolve(rv))
	protected.POST("/open", handler.Open(rv, svc.Opener, cfg.Opener.Background))

	return r
}
