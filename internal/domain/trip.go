package domain

import "time"

// TripStatus represents the merge state of a trip record.
type TripStatus string

const (
	TripStatusPartial  TripStatus = "PARTIAL"
	TripStatusComplete TripStatus = "COMPLETE"
)

// TripRecord is the consolidated view of one trip, keyed by trip ID.
// A record exists only once a trip_start has been accepted; COMPLETE
// records always carry both halves.
type TripRecord struct {
	TripID         string
	Status         TripStatus
	StartData      *TripStartData
	EndData        *TripEndData
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletionDate string // YYYY-MM-DD, derived from EndData.DropoffDatetime

	// Version is the optimistic-concurrency counter maintained by the
	// store; an update only applies against the version it read.
	Version int64
}

// CompletionDateLayout is the calendar-date format used as the
// aggregation partition key.
const CompletionDateLayout = "2006-01-02"
