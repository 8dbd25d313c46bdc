package service

import (
	"context"
	"time"

	"tripstream/internal/domain"
	"tripstream/internal/redis"
	"tripstream/internal/repository"
)

// AggregationSummary reports the result of one daily aggregation run.
type AggregationSummary struct {
	Date           string               `json:"date"`
	TripsProcessed int                  `json:"trips_processed"`
	Written        bool                 `json:"written"`
	Metrics        *domain.DailyMetrics `json:"metrics,omitempty"`
}

// AggregatorService recomputes daily KPI summaries from completed trips.
// Each run is a full recomputation for its date: the output row is a
// deterministic function of the COMPLETE set at scan time, so re-running
// never drifts and interleaving with live ingestion self-corrects on the
// next run.
type AggregatorService struct {
	tripRepo    repository.TripStateRepository
	metricsRepo repository.MetricsRepository
	cache       redis.CacheStoreInterface
}

// NewAggregatorService creates a new AggregatorService. cache may be nil.
func NewAggregatorService(
	tripRepo repository.TripStateRepository,
	metricsRepo repository.MetricsRepository,
	cache redis.CacheStoreInterface,
) *AggregatorService {
	return &AggregatorService{
		tripRepo:    tripRepo,
		metricsRepo: metricsRepo,
		cache:       cache,
	}
}

// RunDailyAggregation computes and stores the metrics for one completion
// date, replacing any prior row wholesale. A date with no completed trips
// produces no output row at all.
func (s *AggregatorService) RunDailyAggregation(ctx context.Context, date string) (*AggregationSummary, error) {
	if _, err := time.Parse(domain.CompletionDateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}

	trips, err := s.tripRepo.ListByCompletionDate(ctx, date)
	if err != nil {
		return nil, err
	}

	summary := &AggregationSummary{Date: date, TripsProcessed: len(trips)}
	if len(trips) == 0 {
		return summary, nil
	}

	metrics := computeDailyMetrics(date, trips)
	if metrics.TripCount == 0 {
		return summary, nil
	}
	if err := s.metricsRepo.Replace(ctx, metrics); err != nil {
		return nil, err
	}

	if s.cache != nil {
		// Stale cached rows would otherwise outlive the rewrite for a TTL.
		_ = s.cache.InvalidateDailyMetrics(ctx, date)
	}

	summary.Written = true
	summary.Metrics = metrics
	return summary, nil
}

// GetDailyMetrics returns the stored metrics for a date, cache-first.
// Returns repository.ErrNotFound when no aggregation output exists.
func (s *AggregatorService) GetDailyMetrics(ctx context.Context, date string) (*domain.DailyMetrics, error) {
	if _, err := time.Parse(domain.CompletionDateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}

	if s.cache != nil {
		if cached, err := s.cache.GetDailyMetrics(ctx, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	metrics, err := s.metricsRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetDailyMetrics(ctx, metrics)
	}

	return metrics, nil
}

// computeDailyMetrics folds the completed trips for one date into a
// metrics row. Trips lacking end data are skipped; the monitor flags
// those separately.
func computeDailyMetrics(date string, trips []*domain.TripRecord) *domain.DailyMetrics {
	metrics := &domain.DailyMetrics{
		Date:        date,
		GeneratedAt: time.Now().UTC(),
	}

	var totalDuration float64
	var durationCount int
	pickupCounts := make(map[string]int)

	for _, rec := range trips {
		if rec.EndData == nil {
			continue
		}

		fare := rec.EndData.FareAmount
		if metrics.TripCount == 0 {
			metrics.MaxFare = fare
			metrics.MinFare = fare
		} else {
			if fare > metrics.MaxFare {
				metrics.MaxFare = fare
			}
			if fare < metrics.MinFare {
				metrics.MinFare = fare
			}
		}
		metrics.TripCount++
		metrics.TotalFare += fare

		if rec.StartData != nil {
			duration := rec.EndData.DropoffDatetime.Sub(rec.StartData.PickupDatetime)
			if duration > 0 {
				totalDuration += duration.Minutes()
				durationCount++
			}
			pickupCounts[rec.StartData.PickupLocationID]++
		}
	}

	if metrics.TripCount > 0 {
		metrics.AverageFare = metrics.TotalFare / float64(metrics.TripCount)
	}
	if durationCount > 0 {
		metrics.AvgDurationMinutes = totalDuration / float64(durationCount)
	}

	var topCount int
	for location, count := range pickupCounts {
		if count > topCount || (count == topCount && location < metrics.TopPickupLocation) {
			metrics.TopPickupLocation = location
			topCount = count
		}
	}

	return metrics
}
