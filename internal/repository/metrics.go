package repository

import (
	"context"

	"tripstream/internal/domain"
)

// MetricsRepository defines the date-partitioned KPI output store.
type MetricsRepository interface {
	// Replace overwrites the metrics row for metrics.Date wholesale.
	Replace(ctx context.Context, metrics *domain.DailyMetrics) error

	// GetByDate retrieves the metrics for a date.
	// Returns ErrNotFound when no aggregation output exists.
	GetByDate(ctx context.Context, date string) (*domain.DailyMetrics, error)
}
