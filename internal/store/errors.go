package store

import "errors"

var (
	// ErrConflict reports an overlap with one of the owner's stored bookings.
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
	// ErrInvalidRange reports an interval whose start is not before its end.
	ErrInvalidRange = errors.New("invalid range")
	// ErrSerialization reports that a serializable transaction kept losing to
	// concurrent writers after its retry budget. Errors carrying it also match
	// ErrConflict.
	ErrSerialization = errors.New("serialization failure")
)
