package repository

import (
	"context"
	"time"

	"tripstream/internal/domain"
)

// QuarantineRepository defines the append-only quarantine sink.
type QuarantineRepository interface {
	// Append persists one quarantine entry.
	Append(ctx context.Context, rec *domain.QuarantineRecord) error

	// CountSince returns the number of entries ingested at or after t.
	CountSince(ctx context.Context, t time.Time) (int, error)
}
