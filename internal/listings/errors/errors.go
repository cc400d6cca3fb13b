package errors

import "errors"

var (
	ErrNotFound = errors.New("listing not found")

	ErrInvalidID = errors.New("invalid listing ID format")

	// ErrInvalidRange: a stay boundary is missing or start is not before end.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrDateConflict: the requested stay overlaps an existing reservation.
	ErrDateConflict = errors.New("requested dates overlap an existing reservation")

	// ErrVersionConflict: the listing changed since it was read.
	ErrVersionConflict = errors.New("listing was modified concurrently")

	ErrLockHeld = errors.New("listing is locked by another admission")
)
