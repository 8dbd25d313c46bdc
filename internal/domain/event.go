package domain

import "time"

// EventType identifies the lifecycle half an event carries.
type EventType string

const (
	EventTypeTripStart EventType = "trip_start"
	EventTypeTripEnd   EventType = "trip_end"
)

// TripStartData is the payload of a trip_start event.
type TripStartData struct {
	TripID                    string    `json:"trip_id"`
	PickupLocationID          string    `json:"pickup_location_id"`
	DropoffLocationID         string    `json:"dropoff_location_id"`
	VendorID                  string    `json:"vendor_id"`
	PickupDatetime            time.Time `json:"pickup_datetime"`
	EstimatedDropoffDatetime  time.Time `json:"estimated_dropoff_datetime"`
	EstimatedFareAmount       float64   `json:"estimated_fare_amount"`
}

// TripEndData is the payload of a trip_end event.
type TripEndData struct {
	TripID          string    `json:"trip_id"`
	DropoffDatetime time.Time `json:"dropoff_datetime"`
	RateCode        int       `json:"rate_code"`
	PassengerCount  int       `json:"passenger_count"`
	TripDistance    float64   `json:"trip_distance"`
	FareAmount      float64   `json:"fare_amount"`
	TipAmount       float64   `json:"tip_amount"`
	PaymentType     int       `json:"payment_type"`
	TripType        int       `json:"trip_type"`
}

// TripEvent is a validated lifecycle event. Exactly one of Start or End
// is set, matching Type.
type TripEvent struct {
	Type          EventType
	SchemaVersion string
	Timestamp     time.Time
	Start         *TripStartData
	End           *TripEndData
}

// TripID returns the trip key the event belongs to.
func (e *TripEvent) TripID() string {
	if e.Start != nil {
		return e.Start.TripID
	}
	if e.End != nil {
		return e.End.TripID
	}
	return ""
}

// IngestedEvent is a lineage row recorded for every event that passed
// validation, whether it merged or was quarantined.
type IngestedEvent struct {
	EventID     string
	TripID      string
	EventType   EventType
	Payload     []byte
	ProcessedAt time.Time
	Status      string
}

// Lineage row statuses.
const (
	IngestStatusProcessed   = "processed"
	IngestStatusQuarantined = "quarantined"
)
