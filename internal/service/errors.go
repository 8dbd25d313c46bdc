package service

import "errors"

var (
	// ErrInvalidSchema is returned when an event payload is structurally
	// malformed: missing trip_id, missing required fields, or numeric
	// fields that fail to parse as non-negative numbers.
	ErrInvalidSchema = errors.New("invalid event schema")

	// ErrUnknownEventType is returned when event_type is neither
	// trip_start nor trip_end.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrInvalidTripID is returned when a lookup is attempted with an
	// empty trip ID.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidDate is returned when an aggregation date is not a valid
	// YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invalid date")
)
