package service

import (
	"context"
	"time"

	"tripstream/internal/domain"
	"tripstream/internal/redis"
	"tripstream/internal/repository"
)

// StatsService assembles the pipeline counters behind the stats endpoint.
// Counters are approximate: they are read through a short-TTL cache and
// the underlying tables move with every event.
type StatsService struct {
	tripRepo       repository.TripStateRepository
	quarantineRepo repository.QuarantineRepository
	eventLog       repository.EventLogRepository
	cache          redis.CacheStoreInterface
}

// NewStatsService creates a new StatsService. cache may be nil.
func NewStatsService(
	tripRepo repository.TripStateRepository,
	quarantineRepo repository.QuarantineRepository,
	eventLog repository.EventLogRepository,
	cache redis.CacheStoreInterface,
) *StatsService {
	return &StatsService{
		tripRepo:       tripRepo,
		quarantineRepo: quarantineRepo,
		eventLog:       eventLog,
		cache:          cache,
	}
}

// GetStats returns the current pipeline counters, cache-first.
func (s *StatsService) GetStats(ctx context.Context) (*redis.PipelineStats, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetStats(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	eventCounts, err := s.eventLog.CountByType(ctx)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.tripRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	quarantined, err := s.quarantineRepo.CountSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	stats := &redis.PipelineStats{
		TripStarts:       eventCounts[domain.EventTypeTripStart],
		TripEnds:         eventCounts[domain.EventTypeTripEnd],
		PartialTrips:     statusCounts[domain.TripStatusPartial],
		CompletedTrips:   statusCounts[domain.TripStatusComplete],
		QuarantinedToday: quarantined,
	}

	if s.cache != nil {
		_ = s.cache.SetStats(ctx, stats)
	}

	return stats, nil
}
