package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrVersionConflict is returned when a conditional update lost the
	// race: the record changed since it was read. Callers re-read and
	// re-apply their transition.
	ErrVersionConflict = errors.New("version conflict")
)
