package postgres

import (
	"context"
	"database/sql"

	"tripstream/internal/domain"
	"tripstream/internal/repository"
)

// EventLogRepository is a PostgreSQL implementation of repository.EventLogRepository.
type EventLogRepository struct {
	q Querier
}

// NewEventLogRepository creates a new PostgreSQL event log repository.
func NewEventLogRepository(db *sql.DB) *EventLogRepository {
	return &EventLogRepository{q: db}
}

// Append records one ingested event.
func (r *EventLogRepository) Append(ctx context.Context, ev *domain.IngestedEvent) error {
	query := `
		INSERT INTO trip_events (event_id, trip_id, event_type, payload, processed_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		ev.EventID,
		ev.TripID,
		ev.EventType,
		ev.Payload,
		ev.ProcessedAt,
		ev.Status,
	)

	return err
}

// DuplicateTripIDs returns trip IDs that appear in more than one log row
// for the same event type.
func (r *EventLogRepository) DuplicateTripIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT trip_id
		FROM trip_events
		GROUP BY trip_id, event_type
		HAVING COUNT(*) > 1
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tripIDs []string
	for rows.Next() {
		var tripID string
		if err := rows.Scan(&tripID); err != nil {
			return nil, err
		}
		tripIDs = append(tripIDs, tripID)
	}

	return tripIDs, rows.Err()
}

// CountByType returns the number of log rows per event type.
func (r *EventLogRepository) CountByType(ctx context.Context) (map[domain.EventType]int, error) {
	query := `
		SELECT event_type, COUNT(*) FROM trip_events GROUP BY event_type
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.EventType]int)
	for rows.Next() {
		var eventType domain.EventType
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		counts[eventType] = count
	}

	return counts, rows.Err()
}

// Ensure EventLogRepository implements repository.EventLogRepository.
var _ repository.EventLogRepository = (*EventLogRepository)(nil)
