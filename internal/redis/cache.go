package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tripstream/internal/domain"
)

// CacheStore handles read-side caching in Redis for the analytics and
// stats query surface.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	MetricsCacheTTL = 5 * time.Minute  // Daily metrics only change on aggregation runs
	StatsCacheTTL   = 15 * time.Second // Pipeline counters move with every event
)

// Key prefixes
const (
	metricsCachePrefix = "cache:metrics:"
	statsCacheKey      = "cache:stats"
)

// GetDailyMetrics retrieves cached metrics for a date.
func (s *CacheStore) GetDailyMetrics(ctx context.Context, date string) (*domain.DailyMetrics, error) {
	key := metricsCachePrefix + date
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var metrics domain.DailyMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// SetDailyMetrics stores metrics for a date in cache.
func (s *CacheStore) SetDailyMetrics(ctx context.Context, metrics *domain.DailyMetrics) error {
	key := metricsCachePrefix + metrics.Date
	data, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, MetricsCacheTTL).Err()
}

// InvalidateDailyMetrics removes the cached metrics for a date. Called
// after an aggregation run rewrites the row.
func (s *CacheStore) InvalidateDailyMetrics(ctx context.Context, date string) error {
	key := metricsCachePrefix + date
	return s.client.Del(ctx, key).Err()
}

// PipelineStats is a cached snapshot of the ingestion counters.
type PipelineStats struct {
	TripStarts       int `json:"trip_starts"`
	TripEnds         int `json:"trip_ends"`
	PartialTrips     int `json:"partial_trips"`
	CompletedTrips   int `json:"completed_trips"`
	QuarantinedToday int `json:"quarantined_today"`
}

// GetStats retrieves the cached stats snapshot.
func (s *CacheStore) GetStats(ctx context.Context) (*PipelineStats, error) {
	data, err := s.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var stats PipelineStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetStats stores the stats snapshot in cache.
func (s *CacheStore) SetStats(ctx context.Context, stats *PipelineStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, statsCacheKey, data, StatsCacheTTL).Err()
}
