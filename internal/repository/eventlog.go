package repository

import (
	"context"

	"tripstream/internal/domain"
)

// EventLogRepository records every ingested event for lineage. The log
// keeps one row per delivered source event, so a trip ID showing up more
// than once for the same event type means duplicate source rows.
type EventLogRepository interface {
	// Append records one ingested event.
	Append(ctx context.Context, ev *domain.IngestedEvent) error

	// DuplicateTripIDs returns trip IDs that appear in more than one log
	// row for the same event type.
	DuplicateTripIDs(ctx context.Context) ([]string, error)

	// CountByType returns the number of log rows per event type.
	CountByType(ctx context.Context) (map[domain.EventType]int, error)
}
