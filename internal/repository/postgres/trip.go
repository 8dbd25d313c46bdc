package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"tripstream/internal/domain"
	"tripstream/internal/repository"
)

// TripStateRepository is a PostgreSQL implementation of repository.TripStateRepository.
type TripStateRepository struct {
	q Querier
}

// NewTripStateRepository creates a new PostgreSQL trip state repository.
func NewTripStateRepository(db *sql.DB) *TripStateRepository {
	return &TripStateRepository{q: db}
}

// NewTripStateRepositoryWithTx creates a trip state repository using a transaction.
func NewTripStateRepositoryWithTx(tx *sql.Tx) *TripStateRepository {
	return &TripStateRepository{q: tx}
}

const tripColumns = `trip_id, status, start_data, end_data, created_at, updated_at, completion_date, version`

// Get retrieves the current record for a trip.
func (r *TripStateRepository) Get(ctx context.Context, tripID string) (*domain.TripRecord, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trip_state WHERE trip_id = $1
	`

	rec, err := scanTripRecord(r.q.QueryRowContext(ctx, query, tripID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return rec, nil
}

// Create persists a brand-new record with version 1.
func (r *TripStateRepository) Create(ctx context.Context, rec *domain.TripRecord) error {
	query := `
		INSERT INTO trip_state (trip_id, status, start_data, end_data, created_at, updated_at, completion_date, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		ON CONFLICT (trip_id) DO NOTHING
	`

	startData, endData, err := marshalPayloads(rec)
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query,
		rec.TripID,
		rec.Status,
		startData,
		endData,
		rec.CreatedAt,
		rec.UpdatedAt,
		nullString(rec.CompletionDate),
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrVersionConflict
	}

	rec.Version = 1
	return nil
}

// Update applies rec conditionally on its version matching the stored row.
func (r *TripStateRepository) Update(ctx context.Context, rec *domain.TripRecord) error {
	query := `
		UPDATE trip_state
		SET status = $1, start_data = $2, end_data = $3, updated_at = $4, completion_date = $5, version = version + 1
		WHERE trip_id = $6 AND version = $7
	`

	startData, endData, err := marshalPayloads(rec)
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query,
		rec.Status,
		startData,
		endData,
		rec.UpdatedAt,
		nullString(rec.CompletionDate),
		rec.TripID,
		rec.Version,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrVersionConflict
	}

	rec.Version++
	return nil
}

// Scan streams every record to fn.
func (r *TripStateRepository) Scan(ctx context.Context, fn func(*domain.TripRecord) error) error {
	query := `
		SELECT ` + tripColumns + `
		FROM trip_state
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanTripRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	return rows.Err()
}

// ListByCompletionDate retrieves all COMPLETE records for a date.
func (r *TripStateRepository) ListByCompletionDate(ctx context.Context, date string) ([]*domain.TripRecord, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trip_state
		WHERE status = $1 AND completion_date = $2
	`

	rows, err := r.q.QueryContext(ctx, query, domain.TripStatusComplete, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.TripRecord
	for rows.Next() {
		rec, err := scanTripRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountByStatus returns the number of records per status.
func (r *TripStateRepository) CountByStatus(ctx context.Context) (map[domain.TripStatus]int, error) {
	query := `
		SELECT status, COUNT(*) FROM trip_state GROUP BY status
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TripStatus]int)
	for rows.Next() {
		var status domain.TripStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTripRecord(row rowScanner) (*domain.TripRecord, error) {
	var rec domain.TripRecord
	var startData, endData []byte
	var completionDate sql.NullString

	err := row.Scan(
		&rec.TripID,
		&rec.Status,
		&startData,
		&endData,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&completionDate,
		&rec.Version,
	)
	if err != nil {
		return nil, err
	}

	if len(startData) > 0 {
		rec.StartData = &domain.TripStartData{}
		if err := json.Unmarshal(startData, rec.StartData); err != nil {
			return nil, err
		}
	}
	if len(endData) > 0 {
		rec.EndData = &domain.TripEndData{}
		if err := json.Unmarshal(endData, rec.EndData); err != nil {
			return nil, err
		}
	}
	if completionDate.Valid {
		rec.CompletionDate = completionDate.String
	}

	return &rec, nil
}

func marshalPayloads(rec *domain.TripRecord) ([]byte, []byte, error) {
	var startData, endData []byte
	var err error

	if rec.StartData != nil {
		startData, err = json.Marshal(rec.StartData)
		if err != nil {
			return nil, nil, err
		}
	}
	if rec.EndData != nil {
		endData, err = json.Marshal(rec.EndData)
		if err != nil {
			return nil, nil, err
		}
	}

	return startData, endData, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure TripStateRepository implements repository.TripStateRepository.
var _ repository.TripStateRepository = (*TripStateRepository)(nil)
