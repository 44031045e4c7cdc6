package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBookingStamp_AssignsIdentityAndTimestamps(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	var b Booking
	if err := b.Stamp(now); err != nil {
		t.Fatalf("Stamp error: %v", err)
	}
	if b.ID == uuid.Nil {
		t.Fatalf("expected non-nil id")
	}
	if b.ID.Version() != 7 {
		t.Fatalf("id version = %d, want 7", b.ID.Version())
	}
	if !b.CreatedAt.Equal(now) || !b.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %v/%v, want %v", b.CreatedAt, b.UpdatedAt, now)
	}
}

func TestBookingStamp_KeepsExistingFields(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000042")
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	b := Booking{ID: id, CreatedAt: created}
	if err := b.Stamp(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Stamp error: %v", err)
	}
	if b.ID != id {
		t.Fatalf("id = %s, want %s", b.ID, id)
	}
	if !b.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", b.CreatedAt, created)
	}
}

func TestBookingInterval(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	b := Booking{StartTime: start, EndTime: start.Add(time.Hour)}
	iv := b.Interval()
	if !iv.Start.Equal(start) || iv.Duration() != time.Hour {
		t.Fatalf("interval = %+v", iv)
	}
}

func TestBookingStamp_TruncatesTimestamps(t *testing.T) {
	var b Booking
	now := time.Date(2026, 1, 1, 0, 0, 0, 123456789, time.UTC)
	if err := b.Stamp(now); err != nil {
		t.Fatalf("Stamp error: %v", err)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 123456000, time.UTC)
	if !b.CreatedAt.Equal(want) || !b.UpdatedAt.Equal(want) {
		t.Fatalf("created_at = %v, updated_at = %v, want %v", b.CreatedAt, b.UpdatedAt, want)
	}
}
