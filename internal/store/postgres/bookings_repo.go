package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/store"
)

type BookingRepo struct {
	db  *bun.DB
	txs txRunner
	log *slog.Logger
}

type txRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

func NewBookingRepo(db *bun.DB, log *slog.Logger) *BookingRepo {
	if log == nil {
		log = slog.Default()
	}
	return &BookingRepo{
		db:  db,
		txs: db,
		log: log.With(slog.String("component", "store.bookings")),
	}
}

func (r *BookingRepo) Create(ctx context.Context, ownerID string, iv domain.Interval, title string) (domain.Booking, error) {
	iv = domain.NewInterval(iv.Start, iv.End)
	if !iv.Valid() {
		return domain.Booking{}, store.ErrInvalidRange
	}

	var out domain.Booking
	err := r.inSerializableOwnerTx(ctx, ownerID, func(ctx context.Context, tx bun.Tx) error {
		existing, err := overlapping(ctx, tx, ownerID, iv)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return store.ErrConflict
		}

		m := domain.Booking{
			OwnerID:   ownerID,
			Title:     title,
			StartTime: iv.Start,
			EndTime:   iv.End,
		}
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			return bookingWriteError(err)
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Booking{}, bookingWriteError(err)
	}
	return out, nil
}

func (r *BookingRepo) Overlapping(ctx context.Context, ownerID string, iv domain.Interval) ([]domain.Booking, error) {
	return overlapping(ctx, r.db, ownerID, iv)
}

func (r *BookingRepo) List(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		OrderExpr("start_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) Get(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error) {
	return getOwned(ctx, r.db, ownerID, id, false)
}

func (r *BookingRepo) Delete(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error) {
	var out domain.Booking
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		b, err := getOwned(ctx, tx, ownerID, id, true)
		if err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*domain.Booking)(nil)).
			Where("id = ?", b.ID).
			Where("owner_id = ?", ownerID).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

// inSerializableOwnerTx runs fn in a serializable transaction holding the
// owner's advisory lock, retrying on serialization failures.
func (r *BookingRepo) inSerializableOwnerTx(ctx context.Context, ownerID string, fn func(ctx context.Context, tx bun.Tx) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}
	return withSerializationRetry(ctx, store.CreateAttempts, func(ctx context.Context) error {
		return r.txs.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
			if err := lockOwnerBookings(ctx, tx, ownerID); err != nil {
				return err
			}
			return fn(ctx, tx)
		})
	}, func(attempt int, err error) {
		r.log.Warn("serialization failure, retrying transaction",
			slog.String("owner_id", ownerID),
			slog.Int("attempt", attempt),
			slog.Any("err", err),
		)
	})
}

func lockOwnerBookings(ctx context.Context, tx bun.Tx, ownerID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", ownerID).Exec(ctx)
	return err
}

// overlapping narrows rows in SQL and then decides with Interval.Overlaps, so
// the final answer never depends on how the database compares boundaries.
func overlapping(ctx context.Context, db bun.IDB, ownerID string, iv domain.Interval) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		Where("start_time < ?", iv.End).
		Where("end_time > ?", iv.Start).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, b := range rows {
		if b.Interval().Overlaps(iv) {
			out = append(out, b)
		}
	}
	return out, nil
}

func getOwned(ctx context.Context, db bun.IDB, ownerID string, id uuid.UUID, forUpdate bool) (domain.Booking, error) {
	var b domain.Booking
	q := db.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Limit(1)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return b, nil
}
