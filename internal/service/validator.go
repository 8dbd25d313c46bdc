package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"tripstream/internal/domain"
)

// Event payloads originate from CSV-fed upstream producers, so numeric
// fields may arrive either as JSON numbers or as quoted strings, and
// datetimes in either ISO-8601 or space-separated form.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseEvent validates a raw event and returns its typed form.
// Events arrive as an envelope {event_type, schema_version, timestamp, data};
// a flat payload without a data wrapper is accepted as well.
// Returns ErrInvalidSchema or ErrUnknownEventType on failure; no event
// without a usable trip_id ever passes.
func ParseEvent(raw []byte) (*domain.TripEvent, error) {
	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	eventType, err := stringField(top, "event_type")
	if err != nil {
		return nil, err
	}

	payload := top
	if data, ok := top["data"].(map[string]any); ok {
		payload = data
	}

	ev := &domain.TripEvent{
		SchemaVersion: optionalString(top, "schema_version"),
	}
	if ts := optionalString(top, "timestamp"); ts != "" {
		t, err := parseDatetime(ts)
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp: %v", ErrInvalidSchema, err)
		}
		ev.Timestamp = t
	}

	switch domain.EventType(eventType) {
	case domain.EventTypeTripStart:
		ev.Type = domain.EventTypeTripStart
		ev.Start, err = parseStartPayload(payload)
	case domain.EventTypeTripEnd:
		ev.Type = domain.EventTypeTripEnd
		ev.End, err = parseEndPayload(payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}
	if err != nil {
		return nil, err
	}

	return ev, nil
}

func parseStartPayload(payload map[string]any) (*domain.TripStartData, error) {
	start := &domain.TripStartData{}
	var err error

	if start.TripID, err = stringField(payload, "trip_id"); err != nil {
		return nil, err
	}
	if start.PickupLocationID, err = stringField(payload, "pickup_location_id"); err != nil {
		return nil, err
	}
	if start.DropoffLocationID, err = stringField(payload, "dropoff_location_id"); err != nil {
		return nil, err
	}
	if start.VendorID, err = stringField(payload, "vendor_id"); err != nil {
		return nil, err
	}
	if start.PickupDatetime, err = datetimeField(payload, "pickup_datetime"); err != nil {
		return nil, err
	}
	if start.EstimatedDropoffDatetime, err = datetimeField(payload, "estimated_dropoff_datetime"); err != nil {
		return nil, err
	}
	if start.EstimatedFareAmount, err = floatField(payload, "estimated_fare_amount"); err != nil {
		return nil, err
	}

	return start, nil
}

func parseEndPayload(payload map[string]any) (*domain.TripEndData, error) {
	end := &domain.TripEndData{}
	var err error

	if end.TripID, err = stringField(payload, "trip_id"); err != nil {
		return nil, err
	}
	if end.DropoffDatetime, err = datetimeField(payload, "dropoff_datetime"); err != nil {
		return nil, err
	}
	if end.RateCode, err = intField(payload, "rate_code"); err != nil {
		return nil, err
	}
	if end.PassengerCount, err = intField(payload, "passenger_count"); err != nil {
		return nil, err
	}
	if end.TripDistance, err = floatField(payload, "trip_distance"); err != nil {
		return nil, err
	}
	if end.FareAmount, err = floatField(payload, "fare_amount"); err != nil {
		return nil, err
	}
	if end.TipAmount, err = floatField(payload, "tip_amount"); err != nil {
		return nil, err
	}
	if end.PaymentType, err = intField(payload, "payment_type"); err != nil {
		return nil, err
	}
	if end.TripType, err = intField(payload, "trip_type"); err != nil {
		return nil, err
	}

	return end, nil
}

// ExtractTripID pulls a trip_id out of a raw payload without full
// validation, for labeling quarantine entries. Returns "" when absent.
func ExtractTripID(raw []byte) string {
	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil {
		return ""
	}

	payload := top
	if data, ok := top["data"].(map[string]any); ok {
		payload = data
	}

	id, _ := payload["trip_id"].(string)
	return id
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidSchema, key)
	}

	switch val := v.(type) {
	case string:
		if val == "" {
			return "", fmt.Errorf("%w: empty %s", ErrInvalidSchema, key)
		}
		return val, nil
	case float64:
		// Identifier columns sometimes arrive numeric from CSV sources.
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %s is not a string", ErrInvalidSchema, key)
	}
}

func optionalString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidSchema, key)
	}

	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not numeric", ErrInvalidSchema, key)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s is not numeric", ErrInvalidSchema, key)
	}

	if f < 0 {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidSchema, key)
	}

	return f, nil
}

func intField(m map[string]any, key string) (int, error) {
	f, err := floatField(m, key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func datetimeField(m map[string]any, key string) (time.Time, error) {
	s, err := stringField(m, key)
	if err != nil {
		return time.Time{}, err
	}

	t, err := parseDatetime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, key, err)
	}

	return t, nil
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}
