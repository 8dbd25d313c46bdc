package tests

import (
	"errors"
	"testing"
	"time"

	"tripstream/internal/domain"
	"tripstream/internal/service"
)

// ──────────────────────────────────────────────
// EVENT VALIDATION
// ──────────────────────────────────────────────

func TestValidator_ParsesStartEnvelope(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"event_type": "trip_start",
		"schema_version": "1.0",
		"timestamp": "2024-05-25T13:19:05Z",
		"data": {
			"trip_id": "T1",
			"pickup_location_id": "161",
			"dropoff_location_id": "236",
			"vendor_id": "2",
			"pickup_datetime": "2024-05-25 13:19:00",
			"estimated_dropoff_datetime": "2024-05-25T14:00:00Z",
			"estimated_fare_amount": "34.18"
		}
	}`)

	ev, err := service.ParseEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.Type != domain.EventTypeTripStart || ev.Start == nil || ev.End != nil {
		t.Fatalf("unexpected event shape: %+v", ev)
	}
	if ev.SchemaVersion != "1.0" {
		t.Errorf("schema_version not carried through: %s", ev.SchemaVersion)
	}
	// CSV-sourced producers quote numerics; the string form must parse.
	if ev.Start.EstimatedFareAmount != 34.18 {
		t.Errorf("expected estimated fare 34.18, got %v", ev.Start.EstimatedFareAmount)
	}
	// Space-separated datetimes are accepted alongside ISO-8601.
	want := time.Date(2024, 5, 25, 13, 19, 0, 0, time.UTC)
	if !ev.Start.PickupDatetime.Equal(want) {
		t.Errorf("expected pickup %v, got %v", want, ev.Start.PickupDatetime)
	}
}

func TestValidator_ParsesEndEnvelope(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"event_type": "trip_end",
		"schema_version": "1.0",
		"data": {
			"trip_id": "T1",
			"dropoff_datetime": "2024-05-25T14:05:00Z",
			"rate_code": "1",
			"passenger_count": 2,
			"trip_distance": 7.5,
			"fare_amount": 40.09,
			"tip_amount": "3.50",
			"payment_type": 1,
			"trip_type": 1
		}
	}`)

	ev, err := service.ParseEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.Type != domain.EventTypeTripEnd || ev.End == nil {
		t.Fatalf("unexpected event shape: %+v", ev)
	}
	if ev.End.FareAmount != 40.09 || ev.End.TipAmount != 3.50 {
		t.Errorf("fare fields wrong: %+v", ev.End)
	}
	if ev.End.RateCode != 1 || ev.End.PassengerCount != 2 {
		t.Errorf("integer fields wrong: %+v", ev.End)
	}
}

func TestValidator_FlatPayloadAccepted(t *testing.T) {
	t.Parallel()

	// Older producers send the payload fields beside event_type instead
	// of under a data wrapper.
	raw := []byte(`{
		"event_type": "trip_end",
		"trip_id": "T1",
		"dropoff_datetime": "2024-05-25T14:05:00Z",
		"rate_code": 1,
		"passenger_count": 1,
		"trip_distance": 2.0,
		"fare_amount": 11.00,
		"tip_amount": 0,
		"payment_type": 2,
		"trip_type": 1
	}`)

	ev, err := service.ParseEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.End.TripID != "T1" {
		t.Errorf("expected trip_id T1, got %s", ev.End.TripID)
	}
}

func TestValidator_RejectsMissingTripID(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		"absent": []byte(`{"event_type": "trip_start", "data": {"pickup_location_id": "161"}}`),
		"empty":  []byte(`{"event_type": "trip_start", "data": {"trip_id": ""}}`),
	}

	for name, raw := range cases {
		if _, err := service.ParseEvent(raw); !errors.Is(err, service.ErrInvalidSchema) {
			t.Errorf("%s trip_id: expected ErrInvalidSchema, got %v", name, err)
		}
	}
}

func TestValidator_RejectsNegativeNumerics(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"event_type": "trip_end",
		"data": {
			"trip_id": "T1",
			"dropoff_datetime": "2024-05-25T14:05:00Z",
			"rate_code": 1,
			"passenger_count": 1,
			"trip_distance": 2.0,
			"fare_amount": -5,
			"tip_amount": 0,
			"payment_type": 1,
			"trip_type": 1
		}
	}`)

	if _, err := service.ParseEvent(raw); !errors.Is(err, service.ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema for negative fare, got %v", err)
	}
}

func TestValidator_RejectsUnparseableNumerics(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"event_type": "trip_start",
		"data": {
			"trip_id": "T1",
			"pickup_location_id": "161",
			"dropoff_location_id": "236",
			"vendor_id": "2",
			"pickup_datetime": "2024-05-25T13:19:00Z",
			"estimated_dropoff_datetime": "2024-05-25T14:00:00Z",
			"estimated_fare_amount": "a lot"
		}
	}`)

	if _, err := service.ParseEvent(raw); !errors.Is(err, service.ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema for non-numeric fare, got %v", err)
	}
}

func TestValidator_RejectsUnknownEventType(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"event_type": "trip_cancelled", "data": {"trip_id": "T1"}}`)

	if _, err := service.ParseEvent(raw); !errors.Is(err, service.ErrUnknownEventType) {
		t.Errorf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestValidator_RejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	if _, err := service.ParseEvent([]byte(`{not json`)); !errors.Is(err, service.ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestValidator_ExtractTripID(t *testing.T) {
	t.Parallel()

	if id := service.ExtractTripID([]byte(`{"event_type": "x", "data": {"trip_id": "T9"}}`)); id != "T9" {
		t.Errorf("expected T9, got %q", id)
	}
	if id := service.ExtractTripID([]byte(`broken`)); id != "" {
		t.Errorf("expected empty trip_id for malformed payload, got %q", id)
	}
}
