package tests

import (
	"context"
	"testing"
	"time"

	"tripstream/internal/domain"
	"tripstream/internal/service"
)

// ──────────────────────────────────────────────
// DATA QUALITY SWEEP
// ──────────────────────────────────────────────

func newMonitor(tripRepo *MockTripStateRepository, eventLog *MockEventLogRepository) (*service.MonitorService, *MockQuarantineRepository, *MockAlertSink) {
	quarantineRepo := NewMockQuarantineRepository()
	alerts := NewMockAlertSink()
	monitor := service.NewMonitorService(tripRepo, quarantineRepo, eventLog, alerts, service.DefaultMonitorConfig())
	return monitor, quarantineRepo, alerts
}

func partialRecord(tripID string, pickupAge time.Duration) *domain.TripRecord {
	now := time.Now().UTC()
	return &domain.TripRecord{
		TripID: tripID,
		Status: domain.TripStatusPartial,
		StartData: &domain.TripStartData{
			TripID:              tripID,
			PickupLocationID:    "161",
			DropoffLocationID:   "236",
			VendorID:            "2",
			PickupDatetime:      now.Add(-pickupAge),
			EstimatedFareAmount: 20,
		},
		CreatedAt: now.Add(-pickupAge),
		UpdatedAt: now.Add(-pickupAge),
	}
}

func completeRecord(tripID string, fare float64, dropoff time.Time) *domain.TripRecord {
	rec := partialRecord(tripID, time.Hour)
	rec.Status = domain.TripStatusComplete
	rec.EndData = &domain.TripEndData{
		TripID:          tripID,
		DropoffDatetime: dropoff,
		FareAmount:      fare,
		PassengerCount:  1,
	}
	rec.CompletionDate = dropoff.Format(domain.CompletionDateLayout)
	return rec
}

func TestSweep_StalePartialIsFlaggedNotMutated(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripStateRepository()
	tripRepo.AddRecord(partialRecord("T3", 7*time.Hour))
	monitor, quarantineRepo, alerts := newMonitor(tripRepo, NewMockEventLogRepository())

	summary, err := monitor.RunSweep(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.ByReason[domain.ReasonStalePartial] != 1 {
		t.Errorf("expected one STALE_PARTIAL flag, got %d", summary.ByReason[domain.ReasonStalePartial])
	}
	entries := quarantineRepo.Entries()
	if len(entries) != 1 || entries[0].TripID != "T3" || entries[0].Reason != domain.ReasonStalePartial {
		t.Errorf("unexpected quarantine entries: %+v", entries)
	}

	// Flagging is observational: the record stays PARTIAL and unchanged.
	rec := tripRepo.GetRecord("T3")
	if rec.Status != domain.TripStatusPartial {
		t.Errorf("sweep mutated record status: %s", rec.Status)
	}
	if tripRepo.UpdateCallCount != 0 {
		t.Errorf("sweep wrote to the trip store")
	}
	if alerts.NotifyCallCount != 1 {
		t.Errorf("expected one alert, got %d", alerts.NotifyCallCount)
	}
}

func TestSweep_FreshPartialIsClean(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripStateRepository()
	tripRepo.AddRecord(partialRecord("T1", 30*time.Minute))
	monitor, quarantineRepo, alerts := newMonitor(tripRepo, NewMockEventLogRepository())

	summary, err := monitor.RunSweep(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.IssuesFound != 0 {
		t.Errorf("expected clean sweep, got %d issues", summary.IssuesFound)
	}
	if quarantineRepo.AppendCallCount != 0 {
		t.Errorf("clean sweep appended quarantine entries")
	}
	// No issues means no alert at all.
	if alerts.NotifyCallCount != 0 {
		t.Errorf("clean sweep sent an alert")
	}
}

func TestSweep_ThresholdOverride(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripStateRepository()
	tripRepo.AddRecord(partialRecord("T1", 2*time.Hour))
	monitor, _, _ := newMonitor(tripRepo, NewMockEventLogRepository())

	summary, err := monitor.RunSweep(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ByReason[domain.ReasonStalePartial] != 1 {
		t.Errorf("expected override threshold to flag the record")
	}
}

func TestSweep_OrphanCompletionIsFlagged(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripStateRepository()
	rec := completeRecord("T4", 25, time.Now().UTC())
	rec.StartData = nil
	tripRepo.AddRecord(rec)
	monitor, quarantineRepo, _ := newMonitor(tripRepo, NewMockEventLogRepository())

	if _, err := monitor.RunSweep(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quarantineRepo.CountByReason(domain.ReasonOrphanCompletion) != 1 {
		t.Errorf("expected one ORPHAN_COMPLETION flag")
	}
}

func TestSweep_SuspiciousFareBounds(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	tripRepo := NewMockTripStateRepository()
	tripRepo.AddRecord(completeRecord("low", 0.5, now))
	tripRepo.AddRecord(completeRecord("high", 750, now))
	tripRepo.AddRecord(completeRecord("ok", 40.09, now))
	monitor, quarantineRepo, _ := newMonitor(tripRepo, NewMockEventLogRepository())

	if _, err := monitor.RunSweep(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quarantineRepo.CountByReason(domain.ReasonSuspiciousFare) != 2 {
		t.Errorf("expected low and high fares flagged, got %d", quarantineRepo.CountByReason(domain.ReasonSuspiciousFare))
	}
	for _, entry := range quarantineRepo.Entries() {
		if entry.TripID == "ok" {
			t.Errorf("in-bounds fare was flagged")
		}
	}
}

func TestSweep_DuplicateSourceRowsFlagged(t *testing.T) {
	t.Parallel()

	eventLog := NewMockEventLogRepository()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_ = eventLog.Append(ctx, &domain.IngestedEvent{
			EventID:   "ev-" + string(rune('a'+i)),
			TripID:    "T7",
			EventType: domain.EventTypeTripStart,
			Status:    domain.IngestStatusProcessed,
		})
	}
	monitor, quarantineRepo, _ := newMonitor(NewMockTripStateRepository(), eventLog)

	summary, err := monitor.RunSweep(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.ByReason[domain.ReasonDuplicateTripID] != 1 {
		t.Errorf("expected one DUPLICATE_TRIP_ID flag, got %d", summary.ByReason[domain.ReasonDuplicateTripID])
	}
	entries := quarantineRepo.Entries()
	if len(entries) != 1 || entries[0].TripID != "T7" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestSweep_SingleAlertBatchesAllIssues(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	tripRepo := NewMockTripStateRepository()
	tripRepo.AddRecord(partialRecord("T3", 8*time.Hour))
	tripRepo.AddRecord(completeRecord("T5", 900, now))
	monitor, _, alerts := newMonitor(tripRepo, NewMockEventLogRepository())

	summary, err := monitor.RunSweep(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.IssuesFound != 2 {
		t.Fatalf("expected 2 issues, got %d", summary.IssuesFound)
	}
	if alerts.NotifyCallCount != 1 {
		t.Errorf("expected exactly one alert dispatch, got %d", alerts.NotifyCallCount)
	}
	if total, ok := alerts.Payloads[0]["total_issues"].(int); !ok || total != 2 {
		t.Errorf("alert payload missing total_issues=2: %v", alerts.Payloads[0])
	}
}

func TestSweep_CancelledBetweenRecords(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripStateRepository()
	tripRepo.AddRecord(partialRecord("T1", 8*time.Hour))
	monitor, _, _ := newMonitor(tripRepo, NewMockEventLogRepository())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := monitor.RunSweep(ctx, 0); err == nil {
		t.Errorf("expected context error from cancelled sweep")
	}
}
