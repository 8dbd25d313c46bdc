package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"tripstream/internal/app"
	"tripstream/internal/config"
	"tripstream/internal/handler"
	internalRedis "tripstream/internal/redis"
	"tripstream/internal/repository/postgres"
	"tripstream/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, scheduler := wireServer(db, redisClient, nrApp, cfg)

	// Run the batch jobs alongside the HTTP surface.
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go scheduler.Run(schedulerCtx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopScheduler()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus the
// job scheduler.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *app.Scheduler) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	tripRepo := postgres.NewTripStateRepository(db)
	quarantineRepo := postgres.NewQuarantineRepository(db)
	eventLogRepo := postgres.NewEventLogRepository(db)
	metricsRepo := postgres.NewMetricsRepository(db)

	// Initialize services.
	alertService := service.NewAlertService()
	correlationService := service.NewCorrelationService(tripRepo, quarantineRepo, eventLogRepo, lockStore)
	monitorService := service.NewMonitorService(tripRepo, quarantineRepo, eventLogRepo, alertService, service.MonitorConfig{
		StaleThreshold: cfg.Monitor.StaleThreshold,
		FareMin:        cfg.Monitor.FareMin,
		FareMax:        cfg.Monitor.FareMax,
	})
	aggregatorService := service.NewAggregatorService(tripRepo, metricsRepo, cacheStore)
	statsService := service.NewStatsService(tripRepo, quarantineRepo, eventLogRepo, cacheStore)

	// Initialize handlers.
	eventHandler := handler.NewEventHandler(correlationService, quarantineRepo)
	tripHandler := handler.NewTripHandler(tripRepo)
	analyticsHandler := handler.NewAnalyticsHandler(aggregatorService, statsService)
	jobsHandler := handler.NewJobsHandler(monitorService, aggregatorService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		EventHandler:     eventHandler,
		TripHandler:      tripHandler,
		AnalyticsHandler: analyticsHandler,
		JobsHandler:      jobsHandler,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
	})

	scheduler := app.NewScheduler(monitorService, aggregatorService, cfg)

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return server, scheduler
}
