package domain

import "time"

// QuarantineReason classifies why an event or record was quarantined.
type QuarantineReason string

const (
	ReasonInvalidSchema    QuarantineReason = "INVALID_SCHEMA"
	ReasonUnknownEventType QuarantineReason = "UNKNOWN_EVENT_TYPE"
	ReasonOrphanEnd        QuarantineReason = "ORPHAN_END"
	ReasonDuplicateEnd     QuarantineReason = "DUPLICATE_END"
	ReasonStalePartial     QuarantineReason = "STALE_PARTIAL"
	ReasonDuplicateTripID  QuarantineReason = "DUPLICATE_TRIP_ID"
	ReasonOrphanCompletion QuarantineReason = "ORPHAN_COMPLETION"
	ReasonSuspiciousFare   QuarantineReason = "SUSPICIOUS_FARE"
	ReasonProcessingError  QuarantineReason = "PROCESSING_ERROR"
)

// QuarantineRecord is an immutable, append-only entry describing an
// event or record that could not be merged or violated a quality rule.
type QuarantineRecord struct {
	TripID     string // synthesized placeholder when absent from the payload
	Reason     QuarantineReason
	RawPayload []byte
	IngestTime time.Time
}
