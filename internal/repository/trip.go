package repository

import (
	"context"

	"tripstream/internal/domain"
)

// TripStateRepository defines the persistence operations for trip records.
type TripStateRepository interface {
	// Get retrieves the current record for a trip.
	// Returns ErrNotFound if no start has ever been accepted.
	Get(ctx context.Context, tripID string) (*domain.TripRecord, error)

	// Create persists a brand-new record. Returns ErrVersionConflict if a
	// record for the trip already exists.
	Create(ctx context.Context, rec *domain.TripRecord) error

	// Update applies rec conditionally on rec.Version matching the stored
	// version, bumping it on success. Returns ErrVersionConflict when the
	// stored record moved on since the read.
	Update(ctx context.Context, rec *domain.TripRecord) error

	// Scan streams every record to fn in no particular order. fn returning
	// an error stops the scan and propagates the error.
	Scan(ctx context.Context, fn func(*domain.TripRecord) error) error

	// ListByCompletionDate retrieves all COMPLETE records for a date.
	ListByCompletionDate(ctx context.Context, date string) ([]*domain.TripRecord, error)

	// CountByStatus returns the number of records per status.
	CountByStatus(ctx context.Context) (map[domain.TripStatus]int, error)
}
