package redis

import (
	"context"
	"time"

	"tripstream/internal/domain"
)

// LockStoreInterface defines the interface for per-trip distributed locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// CacheStoreInterface defines the interface for read-side caching.
type CacheStoreInterface interface {
	GetDailyMetrics(ctx context.Context, date string) (*domain.DailyMetrics, error)
	SetDailyMetrics(ctx context.Context, metrics *domain.DailyMetrics) error
	InvalidateDailyMetrics(ctx context.Context, date string) error
	GetStats(ctx context.Context) (*PipelineStats, error)
	SetStats(ctx context.Context, stats *PipelineStats) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface  = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
)
