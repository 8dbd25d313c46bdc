package postgres

import (
	"context"
	"database/sql"
	"time"

	"tripstream/internal/domain"
	"tripstream/internal/repository"
)

// QuarantineRepository is a PostgreSQL implementation of repository.QuarantineRepository.
type QuarantineRepository struct {
	q Querier
}

// NewQuarantineRepository creates a new PostgreSQL quarantine repository.
func NewQuarantineRepository(db *sql.DB) *QuarantineRepository {
	return &QuarantineRepository{q: db}
}

// Append persists one quarantine entry.
func (r *QuarantineRepository) Append(ctx context.Context, rec *domain.QuarantineRecord) error {
	query := `
		INSERT INTO quarantined_events (trip_id, reason, raw_payload, ingest_time)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		rec.TripID,
		rec.Reason,
		rec.RawPayload,
		rec.IngestTime,
	)

	return err
}

// CountSince returns the number of entries ingested at or after t.
func (r *QuarantineRepository) CountSince(ctx context.Context, t time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM quarantined_events WHERE ingest_time >= $1
	`

	var count int
	if err := r.q.QueryRowContext(ctx, query, t).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Ensure QuarantineRepository implements repository.QuarantineRepository.
var _ repository.QuarantineRepository = (*QuarantineRepository)(nil)
