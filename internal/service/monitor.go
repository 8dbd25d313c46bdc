package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tripstream/internal/domain"
	"tripstream/internal/repository"
)

// MonitorConfig holds the data-quality thresholds for the sweep.
type MonitorConfig struct {
	StaleThreshold time.Duration // partial older than this is flagged
	FareMin        float64
	FareMax        float64
}

// DefaultMonitorConfig returns the sweep thresholds used when none are
// configured.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		StaleThreshold: 6 * time.Hour,
		FareMin:        1,
		FareMax:        500,
	}
}

// SweepSummary reports what one sweep scanned and flagged.
type SweepSummary struct {
	RecordsScanned int                                 `json:"records_scanned"`
	IssuesFound    int                                 `json:"issues_found"`
	ByReason       map[domain.QuarantineReason]int     `json:"by_reason"`
	StartedAt      time.Time                           `json:"started_at"`
	FinishedAt     time.Time                           `json:"finished_at"`
}

// alertIssueLimit caps how many issue details ride along in one alert.
const alertIssueLimit = 10

// MonitorService runs periodic data-quality sweeps over the trip state
// store and the ingestion log. Sweeps never mutate trip records: every
// finding becomes a quarantine entry, and the batch ends in at most one
// alert.
type MonitorService struct {
	tripRepo       repository.TripStateRepository
	quarantineRepo repository.QuarantineRepository
	eventLog       repository.EventLogRepository
	alerts         AlertSink
	cfg            MonitorConfig
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	tripRepo repository.TripStateRepository,
	quarantineRepo repository.QuarantineRepository,
	eventLog repository.EventLogRepository,
	alerts AlertSink,
	cfg MonitorConfig,
) *MonitorService {
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = DefaultMonitorConfig().StaleThreshold
	}
	if cfg.FareMax <= cfg.FareMin {
		def := DefaultMonitorConfig()
		cfg.FareMin, cfg.FareMax = def.FareMin, def.FareMax
	}
	return &MonitorService{
		tripRepo:       tripRepo,
		quarantineRepo: quarantineRepo,
		eventLog:       eventLog,
		alerts:         alerts,
		cfg:            cfg,
	}
}

// RunSweep scans every trip record plus the ingestion log, quarantines
// each finding as it is made, and dispatches one alert if anything was
// flagged. staleThreshold overrides the configured threshold when > 0.
// Each finding's write is independently idempotent, so an interrupted
// sweep leaves nothing half-done.
func (s *MonitorService) RunSweep(ctx context.Context, staleThreshold time.Duration) (*SweepSummary, error) {
	if staleThreshold <= 0 {
		staleThreshold = s.cfg.StaleThreshold
	}

	summary := &SweepSummary{
		ByReason:  make(map[domain.QuarantineReason]int),
		StartedAt: time.Now().UTC(),
	}
	var issues []*domain.QuarantineRecord

	flag := func(tripID string, reason domain.QuarantineReason, subject any) error {
		payload, err := json.Marshal(subject)
		if err != nil {
			return err
		}
		q := &domain.QuarantineRecord{
			TripID:     tripID,
			Reason:     reason,
			RawPayload: payload,
			IngestTime: time.Now().UTC(),
		}
		if err := s.quarantineRepo.Append(ctx, q); err != nil {
			return err
		}
		issues = append(issues, q)
		summary.IssuesFound++
		summary.ByReason[reason]++
		return nil
	}

	err := s.tripRepo.Scan(ctx, func(rec *domain.TripRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.RecordsScanned++

		// Partial trips whose start is older than the threshold never got
		// their end. The record itself stays untouched.
		if rec.Status == domain.TripStatusPartial && rec.StartData != nil {
			if time.Since(rec.StartData.PickupDatetime) > staleThreshold {
				if err := flag(rec.TripID, domain.ReasonStalePartial, rec); err != nil {
					return err
				}
			}
		}

		// A completion without start data points at a storage bug or a
		// race that skipped the start half entirely.
		if rec.Status == domain.TripStatusComplete && rec.StartData == nil {
			if err := flag(rec.TripID, domain.ReasonOrphanCompletion, rec); err != nil {
				return err
			}
		}

		if rec.Status == domain.TripStatusComplete && rec.EndData != nil {
			fare := rec.EndData.FareAmount
			if fare < s.cfg.FareMin || fare > s.cfg.FareMax {
				if err := flag(rec.TripID, domain.ReasonSuspiciousFare, rec); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Duplicate source rows are visible in the ingestion log, not in the
	// keyed store, where the second delivery would have been merged away.
	dupIDs, err := s.eventLog.DuplicateTripIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, tripID := range dupIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := flag(tripID, domain.ReasonDuplicateTripID, map[string]string{"trip_id": tripID}); err != nil {
			return nil, err
		}
	}

	summary.FinishedAt = time.Now().UTC()

	if summary.IssuesFound > 0 && s.alerts != nil {
		s.dispatchAlert(ctx, summary, issues)
	}

	return summary, nil
}

// dispatchAlert sends the single batched alert for a sweep. Delivery is
// fire-and-forget; the quarantine entries are the durable record.
func (s *MonitorService) dispatchAlert(ctx context.Context, summary *SweepSummary, issues []*domain.QuarantineRecord) {
	shown := issues
	if len(shown) > alertIssueLimit {
		shown = shown[:alertIssueLimit]
	}

	details := make([]map[string]any, 0, len(shown))
	for _, q := range shown {
		details = append(details, map[string]any{
			"trip_id":     q.TripID,
			"reason":      q.Reason,
			"ingest_time": q.IngestTime,
		})
	}

	subject := fmt.Sprintf("Data quality issues detected: %d records", summary.IssuesFound)
	_ = s.alerts.Notify(ctx, subject, map[string]any{
		"timestamp":    summary.FinishedAt,
		"total_issues": summary.IssuesFound,
		"by_reason":    summary.ByReason,
		"issues":       details,
	})
}
