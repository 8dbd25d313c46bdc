package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"tripstream/internal/handler"
	"tripstream/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	EventHandler     *handler.EventHandler
	TripHandler      *handler.TripHandler
	AnalyticsHandler *handler.AnalyticsHandler
	JobsHandler      *handler.JobsHandler
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// At-least-once producers may redeliver over HTTP too; the
	// Idempotency-Key header short-circuits exact retries before they
	// reach the correlation path.
	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Event ingestion.
		v1.POST("/events", deps.EventHandler.Ingest)

		// Trip state lookups.
		trips := v1.Group("/trips")
		{
			trips.GET("", deps.TripHandler.ListByDate)
			trips.GET("/:id", deps.TripHandler.GetTrip)
		}

		// Analytics.
		v1.GET("/analytics/:date", deps.AnalyticsHandler.GetDailyMetrics)
		v1.GET("/stats", deps.AnalyticsHandler.GetStats)

		// On-demand job runs.
		jobs := v1.Group("/jobs")
		{
			jobs.POST("/sweep", deps.JobsHandler.RunSweep)
			jobs.POST("/aggregation/:date", deps.JobsHandler.RunAggregation)
		}
	}

	return router
}
