package app

import (
	"context"
	"log"
	"time"

	"tripstream/internal/config"
	"tripstream/internal/domain"
	"tripstream/internal/service"
)

// Scheduler drives the two batch jobs on their configured intervals:
// the data-quality sweep and the daily KPI aggregation. Both jobs are
// idempotent, so an interval firing twice or a run overlapping live
// ingestion is harmless.
type Scheduler struct {
	monitor    *service.MonitorService
	aggregator *service.AggregatorService
	cfg        *config.Config
}

// NewScheduler creates a new Scheduler.
func NewScheduler(monitor *service.MonitorService, aggregator *service.AggregatorService, cfg *config.Config) *Scheduler {
	return &Scheduler{
		monitor:    monitor,
		aggregator: aggregator,
		cfg:        cfg,
	}
}

// Run blocks until ctx is cancelled, firing jobs on their tickers.
func (s *Scheduler) Run(ctx context.Context) {
	sweepTicker := time.NewTicker(s.cfg.Monitor.SweepInterval)
	defer sweepTicker.Stop()

	aggTicker := time.NewTicker(s.cfg.Aggregator.Interval)
	defer aggTicker.Stop()

	log.Printf("scheduler started: sweep every %s, aggregation every %s",
		s.cfg.Monitor.SweepInterval, s.cfg.Aggregator.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler stopped")
			return
		case <-sweepTicker.C:
			s.runSweep(ctx)
		case <-aggTicker.C:
			s.runAggregation(ctx)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	summary, err := s.monitor.RunSweep(ctx, 0)
	if err != nil {
		log.Printf("sweep failed: %v", err)
		return
	}
	log.Printf("sweep done: scanned=%d flagged=%d", summary.RecordsScanned, summary.IssuesFound)
}

// runAggregation recomputes today and yesterday. Yesterday is included
// because trips completing shortly after midnight can still land on the
// previous completion date.
func (s *Scheduler) runAggregation(ctx context.Context) {
	now := time.Now().UTC()
	for _, date := range []string{
		now.Format(domain.CompletionDateLayout),
		now.AddDate(0, 0, -1).Format(domain.CompletionDateLayout),
	} {
		summary, err := s.aggregator.RunDailyAggregation(ctx, date)
		if err != nil {
			log.Printf("aggregation failed for %s: %v", date, err)
			continue
		}
		if summary.Written {
			log.Printf("aggregation done for %s: trips=%d total_fare=%.2f",
				date, summary.Metrics.TripCount, summary.Metrics.TotalFare)
		}
	}
}
