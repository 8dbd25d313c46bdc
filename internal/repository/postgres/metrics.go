package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tripstream/internal/domain"
	"tripstream/internal/repository"
)

// MetricsRepository is a PostgreSQL implementation of repository.MetricsRepository.
type MetricsRepository struct {
	q Querier
}

// NewMetricsRepository creates a new PostgreSQL metrics repository.
func NewMetricsRepository(db *sql.DB) *MetricsRepository {
	return &MetricsRepository{q: db}
}

// Replace overwrites the metrics row for metrics.Date wholesale.
func (r *MetricsRepository) Replace(ctx context.Context, metrics *domain.DailyMetrics) error {
	query := `
		INSERT INTO daily_metrics (date, trip_count, total_fare, average_fare, max_fare, min_fare, avg_duration_minutes, top_pickup_location, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (date) DO UPDATE SET
			trip_count = EXCLUDED.trip_count,
			total_fare = EXCLUDED.total_fare,
			average_fare = EXCLUDED.average_fare,
			max_fare = EXCLUDED.max_fare,
			min_fare = EXCLUDED.min_fare,
			avg_duration_minutes = EXCLUDED.avg_duration_minutes,
			top_pickup_location = EXCLUDED.top_pickup_location,
			generated_at = EXCLUDED.generated_at
	`

	_, err := r.q.ExecContext(ctx, query,
		metrics.Date,
		metrics.TripCount,
		metrics.TotalFare,
		metrics.AverageFare,
		metrics.MaxFare,
		metrics.MinFare,
		metrics.AvgDurationMinutes,
		nullString(metrics.TopPickupLocation),
		metrics.GeneratedAt,
	)

	return err
}

// GetByDate retrieves the metrics for a date.
func (r *MetricsRepository) GetByDate(ctx context.Context, date string) (*domain.DailyMetrics, error) {
	query := `
		SELECT date, trip_count, total_fare, average_fare, max_fare, min_fare, avg_duration_minutes, top_pickup_location, generated_at
		FROM daily_metrics WHERE date = $1
	`

	var metrics domain.DailyMetrics
	var topPickup sql.NullString

	err := r.q.QueryRowContext(ctx, query, date).Scan(
		&metrics.Date,
		&metrics.TripCount,
		&metrics.TotalFare,
		&metrics.AverageFare,
		&metrics.MaxFare,
		&metrics.MinFare,
		&metrics.AvgDurationMinutes,
		&topPickup,
		&metrics.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if topPickup.Valid {
		metrics.TopPickupLocation = topPickup.String
	}

	return &metrics, nil
}

// Ensure MetricsRepository implements repository.MetricsRepository.
var _ repository.MetricsRepository = (*MetricsRepository)(nil)
