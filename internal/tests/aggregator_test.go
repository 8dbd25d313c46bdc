package tests

import (
	"context"
	"math"
	"testing"
	"time"

	"tripstream/internal/domain"
	"tripstream/internal/service"
)

// ──────────────────────────────────────────────
// DAILY KPI AGGREGATION
// ──────────────────────────────────────────────

func completedTrip(tripID string, fare float64, pickup, dropoff time.Time) *domain.TripRecord {
	return &domain.TripRecord{
		TripID: tripID,
		Status: domain.TripStatusComplete,
		StartData: &domain.TripStartData{
			TripID:           tripID,
			PickupLocationID: "161",
			PickupDatetime:   pickup,
		},
		EndData: &domain.TripEndData{
			TripID:          tripID,
			DropoffDatetime: dropoff,
			FareAmount:      fare,
		},
		CompletionDate: dropoff.Format(domain.CompletionDateLayout),
		CreatedAt:      pickup,
		UpdatedAt:      dropoff,
	}
}

func TestAggregation_SingleTripScenario(t *testing.T) {
	t.Parallel()

	pickup := time.Date(2024, 5, 25, 13, 19, 0, 0, time.UTC)
	dropoff := time.Date(2024, 5, 25, 14, 5, 0, 0, time.UTC)

	tripRepo := NewMockTripStateRepository()
	tripRepo.AddRecord(completedTrip("T1", 40.09, pickup, dropoff))
	metricsRepo := NewMockMetricsRepository()
	aggregator := service.NewAggregatorService(tripRepo, metricsRepo, nil)

	summary, err := aggregator.RunDailyAggregation(context.Background(), "2024-05-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !summary.Written || summary.TripsProcessed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	metrics := metricsRepo.GetMetrics("2024-05-25")
	if metrics == nil {
		t.Fatal("metrics not written")
	}
	if metrics.TripCount != 1 {
		t.Errorf("expected count 1, got %d", metrics.TripCount)
	}
	for name, got := range map[string]float64{
		"total_fare":   metrics.TotalFare,
		"average_fare": metrics.AverageFare,
		"max_fare":     metrics.MaxFare,
		"min_fare":     metrics.MinFare,
	} {
		if got != 40.09 {
			t.Errorf("expected %s 40.09, got %v", name, got)
		}
	}
	if math.Abs(metrics.AvgDurationMinutes-46) > 1e-9 {
		t.Errorf("expected avg duration 46 minutes, got %v", metrics.AvgDurationMinutes)
	}
	if metrics.TopPickupLocation != "161" {
		t.Errorf("expected top pickup 161, got %s", metrics.TopPickupLocation)
	}
}

func TestAggregation_NoCompletedTripsWritesNothing(t *testing.T) {
	t.Parallel()

	aggregator := service.NewAggregatorService(NewMockTripStateRepository(), NewMockMetricsRepository(), nil)

	summary, err := aggregator.RunDailyAggregation(context.Background(), "2024-05-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Written {
		t.Errorf("expected no output for an empty date")
	}
}

func TestAggregation_RerunIsDeterministic(t *testing.T) {
	t.Parallel()

	pickup := time.Date(2024, 5, 25, 13, 0, 0, 0, time.UTC)
	tripRepo := NewMockTripStateRepository()
	tripRepo.AddRecord(completedTrip("T1", 40.09, pickup, pickup.Add(45*time.Minute)))
	tripRepo.AddRecord(completedTrip("T2", 12.50, pickup, pickup.Add(20*time.Minute)))
	metricsRepo := NewMockMetricsRepository()
	aggregator := service.NewAggregatorService(tripRepo, metricsRepo, nil)
	ctx := context.Background()

	first, err := aggregator.RunDailyAggregation(ctx, "2024-05-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := aggregator.RunDailyAggregation(ctx, "2024-05-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, b := first.Metrics, second.Metrics
	if a.TripCount != b.TripCount || a.TotalFare != b.TotalFare ||
		a.AverageFare != b.AverageFare || a.MaxFare != b.MaxFare || a.MinFare != b.MinFare {
		t.Errorf("rerun diverged: %+v vs %+v", a, b)
	}
	if metricsRepo.ReplaceCallCount != 2 {
		t.Errorf("expected 2 wholesale replaces, got %d", metricsRepo.ReplaceCallCount)
	}
}

func TestAggregation_AddedTripRecomputesExactly(t *testing.T) {
	t.Parallel()

	pickup := time.Date(2024, 5, 25, 13, 0, 0, 0, time.UTC)
	tripRepo := NewMockTripStateRepository()
	tripRepo.AddRecord(completedTrip("T1", 40.09, pickup, pickup.Add(45*time.Minute)))
	metricsRepo := NewMockMetricsRepository()
	aggregator := service.NewAggregatorService(tripRepo, metricsRepo, nil)
	ctx := context.Background()

	if _, err := aggregator.RunDailyAggregation(ctx, "2024-05-25"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tripRepo.AddRecord(completedTrip("T2", 10.00, pickup, pickup.Add(15*time.Minute)))

	summary, err := aggregator.RunDailyAggregation(ctx, "2024-05-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	metrics := summary.Metrics
	if metrics.TripCount != 2 {
		t.Errorf("expected count 2, got %d", metrics.TripCount)
	}
	if math.Abs(metrics.TotalFare-50.09) > 1e-9 {
		t.Errorf("expected total 50.09, got %v", metrics.TotalFare)
	}
	if math.Abs(metrics.AverageFare-25.045) > 1e-9 {
		t.Errorf("expected average 25.045, got %v", metrics.AverageFare)
	}
	if metrics.MaxFare != 40.09 || metrics.MinFare != 10.00 {
		t.Errorf("expected max 40.09 min 10.00, got %v/%v", metrics.MaxFare, metrics.MinFare)
	}
}

func TestAggregation_OnlyMatchingDateIncluded(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripStateRepository()
	d1 := time.Date(2024, 5, 25, 14, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 5, 26, 0, 10, 0, 0, time.UTC)
	tripRepo.AddRecord(completedTrip("T1", 40.09, d1.Add(-time.Hour), d1))
	tripRepo.AddRecord(completedTrip("T2", 99.00, d2.Add(-time.Hour), d2))
	metricsRepo := NewMockMetricsRepository()
	aggregator := service.NewAggregatorService(tripRepo, metricsRepo, nil)

	summary, err := aggregator.RunDailyAggregation(context.Background(), "2024-05-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Metrics.TripCount != 1 || summary.Metrics.TotalFare != 40.09 {
		t.Errorf("cross-date leakage: %+v", summary.Metrics)
	}
}

func TestAggregation_InvalidDateRejected(t *testing.T) {
	t.Parallel()

	aggregator := service.NewAggregatorService(NewMockTripStateRepository(), NewMockMetricsRepository(), nil)

	if _, err := aggregator.RunDailyAggregation(context.Background(), "25-05-2024"); err != service.ErrInvalidDate {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}
