package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	OwnerID   string    `bun:"owner_id,notnull"`
	Title     string    `bun:"title,notnull"`
	StartTime time.Time `bun:"start_time,notnull"`
	EndTime   time.Time `bun:"end_time,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (b Booking) Interval() Interval {
	return NewInterval(b.StartTime, b.EndTime)
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		return b.assignIdentity(time.Now())
	case *bun.UpdateQuery:
		b.UpdatedAt = normalize(time.Now())
	}
	return nil
}

// assignIdentity fills the store-owned fields of a booking that is about to
// be inserted. Fields that are already set are kept.
func (b *Booking) assignIdentity(now time.Time) error {
	now = normalize(now)
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	return nil
}

// Stamp assigns identity and timestamps for stores that do not go through bun.
func (b *Booking) Stamp(now time.Time) error {
	return b.assignIdentity(now)
}
