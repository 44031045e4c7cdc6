// Package memory holds in-process stores for tests and single-instance local
// runs. A single mutex serialises every write, which only holds within one
// process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/store"
)

type BookingStore struct {
	mu       sync.Mutex
	now      func() time.Time
	bookings map[uuid.UUID]domain.Booking
}

func NewBookingStore() *BookingStore {
	return &BookingStore{
		now:      time.Now,
		bookings: make(map[uuid.UUID]domain.Booking),
	}
}

func (s *BookingStore) Create(ctx context.Context, ownerID string, iv domain.Interval, title string) (domain.Booking, error) {
	iv = domain.NewInterval(iv.Start, iv.End)
	if !iv.Valid() {
		return domain.Booking{}, store.ErrInvalidRange
	}
	if err := ctx.Err(); err != nil {
		return domain.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.overlappingLocked(ownerID, iv)) > 0 {
		return domain.Booking{}, store.ErrConflict
	}

	b := domain.Booking{
		OwnerID:   ownerID,
		Title:     title,
		StartTime: iv.Start,
		EndTime:   iv.End,
	}
	if err := b.Stamp(s.now()); err != nil {
		return domain.Booking{}, err
	}
	s.bookings[b.ID] = b
	return b, nil
}

func (s *BookingStore) Overlapping(ctx context.Context, ownerID string, iv domain.Interval) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlappingLocked(ownerID, iv), nil
}

func (s *BookingStore) List(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out, nil
}

func (s *BookingStore) Get(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || b.OwnerID != ownerID {
		return domain.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (s *BookingStore) Delete(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || b.OwnerID != ownerID {
		return domain.Booking{}, store.ErrNotFound
	}
	delete(s.bookings, id)
	return b, nil
}

func (s *BookingStore) overlappingLocked(ownerID string, iv domain.Interval) []domain.Booking {
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.OwnerID == ownerID && b.Interval().Overlaps(iv) {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out
}

func sortBookings(bs []domain.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].StartTime.Equal(bs[j].StartTime) {
			return bs[i].StartTime.Before(bs[j].StartTime)
		}
		return bs[i].ID.String() < bs[j].ID.String()
	})
}
