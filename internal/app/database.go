package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"

	"tripstream/internal/config"
)

// NewDatabase opens the PostgreSQL connection backing trip state,
// quarantine, lineage and metrics storage. When nrApp is provided the
// New Relic instrumented driver is used so every query is traced.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	driver := "postgres"
	if nrApp != nil {
		// The "nrpostgres" driver is registered by the nrpq import.
		driver = "nrpostgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The ingest path holds connections only for short conditional
	// writes, but sweeps scan the whole trip_state table, so the pool
	// is sized to keep both going at once.
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)

	// Rotate connections under any firewall or proxy timeout and shed
	// idle ones between sweep runs.
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
