package main

import (
	"database/sql"
	"time"

	"disaster-platform/internal/auth"
	"disaster-platform/internal/config"
	"disaster-platform/internal/disaster"
	"disaster-platform/internal/event"
	"disaster-platform/internal/httpapi"
	"disaster-platform/internal/lookup"
	"disaster-platform/internal/metrics"
	"disaster-platform/internal/resource"
	"disaster-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	cfg       config.Config
	resolver  auth.Resolver
	db        *sql.DB
	rdb       *redis.Client
	disasters *disaster.Service
	resources *resource.Service
	lookups   *lookup.Gateway
	bus       *event.Broadcaster
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	h := httpapi.Handlers{
		Disasters:           deps.disasters,
		Resources:           deps.resources,
		Lookups:             deps.lookups,
		Bus:                 deps.bus,
		DefaultRadiusMeters: deps.cfg.Geo.DefaultRadiusMeters,
	}

	// public
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "Disaster Response API is running"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), deps.db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Live-update feed. Observers authenticate like any other caller.
	actorMW := auth.RequireActor(deps.resolver)
	r.GET("/stream", actorMW, h.Stream)

	disasters := r.Group("/disasters")
	disasters.Use(actorMW)
	{
		disasters.POST("", h.CreateDisaster)
		disasters.GET("", h.ListDisasters)
		disasters.GET("/:id", h.GetDisaster)
		disasters.PUT("/:id", h.UpdateDisaster)
		disasters.DELETE("/:id", h.DeleteDisaster)

		disasters.GET("/:id/resources", h.ListResourcesNear)

		// Lookup endpoints front rate-limited upstreams.
		limited := disasters.Group("")
		limited.Use(httpapi.LookupRateLimit(deps.rdb, deps.cfg.Lookup.RateLimitPerMinute))
		{
			limited.GET("/:id/social-media", h.SocialMedia)
			limited.GET("/:id/official-updates", h.OfficialUpdates)
			limited.POST("/:id/verify-image", h.VerifyImage)
		}
	}

	r.POST("/geocode", actorMW,
		httpapi.LookupRateLimit(deps.rdb, deps.cfg.Lookup.RateLimitPerMinute),
		h.Geocode)
}
