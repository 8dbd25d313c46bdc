package domain

import "time"

// DailyMetrics summarizes the completed trips for one calendar date.
// Each aggregation run recomputes the whole row from the current set of
// COMPLETE records, so the output never drifts from its inputs.
type DailyMetrics struct {
	Date               string // YYYY-MM-DD completion date
	TripCount          int
	TotalFare          float64
	AverageFare        float64
	MaxFare            float64
	MinFare            float64
	AvgDurationMinutes float64 // pickup to dropoff, over trips with start data
	TopPickupLocation  string  // most frequent pickup location ID, if known
	GeneratedAt        time.Time
}
