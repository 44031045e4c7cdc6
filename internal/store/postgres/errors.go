package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"slotguard/backend/internal/store"
)

const (
	bookingsNoOverlapConstraint  = "bookings_no_overlap"
	bookingsValidRangeConstraint = "bookings_valid_range"
)

// sqlState extracts the SQLSTATE code and constraint name from an error
// produced by either supported driver.
func sqlState(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

func isSerializationFailure(err error) bool {
	code, _, ok := sqlState(err)
	if !ok {
		return false
	}
	return code == pgerrcode.SerializationFailure || code == pgerrcode.DeadlockDetected
}

func isOverlapViolation(err error) bool {
	code, constraint, ok := sqlState(err)
	return ok && code == pgerrcode.ExclusionViolation && constraint == bookingsNoOverlapConstraint
}

func isInvalidRangeViolation(err error) bool {
	code, constraint, ok := sqlState(err)
	return ok && code == pgerrcode.CheckViolation && constraint == bookingsValidRangeConstraint
}

// bookingWriteError maps constraint violations raised by a booking write to
// store sentinels and returns other errors unchanged.
func bookingWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case isOverlapViolation(err):
		return store.ErrConflict
	case isInvalidRangeViolation(err):
		return store.ErrInvalidRange
	default:
		return err
	}
}

// withSerializationRetry runs fn up to attempts times while it fails with a
// serialization failure. When the budget is exhausted the returned error
// matches both store.ErrConflict and store.ErrSerialization.
func withSerializationRetry(ctx context.Context, attempts int, fn func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts && onRetry != nil {
			onRetry(attempt, err)
		}
	}
	return fmt.Errorf("%w: %w: %v", store.ErrConflict, store.ErrSerialization, err)
}
