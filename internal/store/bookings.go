package store

import (
	"context"

	"github.com/google/uuid"

	"slotguard/backend/internal/domain"
)

// CreateAttempts bounds how many times a create transaction runs when the
// database reports a serialization failure: the first run plus one retry.
const CreateAttempts = 2

type BookingRepository interface {
	// Create inserts a booking if, inside a serializable transaction, none of
	// the owner's bookings overlap the interval.
	Create(ctx context.Context, ownerID string, iv domain.Interval, title string) (domain.Booking, error)
	// Overlapping returns the owner's bookings overlapping the interval. It is
	// a point-in-time read and guarantees nothing about a later Create.
	Overlapping(ctx context.Context, ownerID string, iv domain.Interval) ([]domain.Booking, error)
	List(ctx context.Context, ownerID string) ([]domain.Booking, error)
	Get(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error)
}
