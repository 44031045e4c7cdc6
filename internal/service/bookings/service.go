package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"slotguard/backend/internal/calendar"
	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/events"
	"slotguard/backend/internal/store"
)

const (
	instrumentationName = "slotguard/backend/internal/service/bookings"
	publishTimeout      = 2 * time.Second
)

// ErrExternalConflict reports that the owner's external calendar is busy over
// the requested interval.
var ErrExternalConflict = errors.New("interval is busy in the external calendar")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	repo      store.BookingRepository
	oracle    calendar.Oracle
	publisher events.Publisher
	log       *slog.Logger
	tracer    trace.Tracer
	outcomes  metric.Int64Counter
	now       func() time.Time
}

func NewService(repo store.BookingRepository, oracle calendar.Oracle, publisher events.Publisher, log *slog.Logger) *Service {
	if oracle == nil {
		oracle = calendar.Disabled{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}

	outcomes, err := otel.Meter(instrumentationName).Int64Counter(
		"bookings.create",
		metric.WithDescription("Booking create attempts by outcome."),
	)
	if err != nil {
		log.Warn("bookings.create counter unavailable", slog.Any("err", err))
	}

	return &Service{
		repo:      repo,
		oracle:    oracle,
		publisher: publisher,
		log:       log.With(slog.String("component", "service.bookings")),
		tracer:    otel.Tracer(instrumentationName),
		outcomes:  outcomes,
		now:       time.Now,
	}
}

type CreateInput struct {
	OwnerID string
	Title   string
	Start   time.Time
	End     time.Time
}

// CreateBooking validates the request, fails fast on a local overlap, asks the
// calendar oracle, and commits through the store's transactional create. No
// booking is persisted unless every check passes.
func (s *Service) CreateBooking(ctx context.Context, in CreateInput) (b domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "bookings.CreateBooking")
	defer func() {
		s.recordOutcome(ctx, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcomeOf(err))
		}
		span.End()
	}()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Booking{}, validationError("title is required")
	}
	if in.OwnerID == "" {
		return domain.Booking{}, validationError("owner_id is required")
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return domain.Booking{}, validationError("start and end are required")
	}
	iv := domain.NewInterval(in.Start, in.End)
	if !iv.Valid() {
		return domain.Booking{}, validationError("end must be after start")
	}
	span.SetAttributes(
		attribute.String("booking.start", iv.Start.Format(time.RFC3339)),
		attribute.String("booking.end", iv.End.Format(time.RFC3339)),
	)

	existing, err := s.repo.Overlapping(ctx, in.OwnerID, iv)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("provisional overlap check: %w", err)
	}
	if len(existing) > 0 {
		return domain.Booking{}, store.ErrConflict
	}

	free, err := s.oracle.IsFree(ctx, in.OwnerID, iv)
	switch {
	case errors.Is(err, calendar.ErrNoExternalAccount):
		s.log.DebugContext(ctx, "no linked calendar, skipping external check", slog.String("owner_id", in.OwnerID))
	case err != nil:
		s.log.WarnContext(ctx, "calendar check failed, proceeding",
			slog.String("owner_id", in.OwnerID),
			slog.Any("err", err),
		)
	case !free:
		return domain.Booking{}, ErrExternalConflict
	}

	b, err = s.repo.Create(ctx, in.OwnerID, iv, title)
	if err != nil {
		return domain.Booking{}, err
	}
	span.SetAttributes(attribute.String("booking.id", b.ID.String()))

	s.publish(ctx, events.TypeBookingCreated, b)
	return b, nil
}

func (s *Service) ListBookings(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	if ownerID == "" {
		return nil, validationError("owner_id is required")
	}
	return s.repo.List(ctx, ownerID)
}

func (s *Service) GetBooking(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error) {
	if ownerID == "" {
		return domain.Booking{}, validationError("owner_id is required")
	}
	if id == uuid.Nil {
		return domain.Booking{}, validationError("booking_id is required")
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) DeleteBooking(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error) {
	if ownerID == "" {
		return domain.Booking{}, validationError("owner_id is required")
	}
	if id == uuid.Nil {
		return domain.Booking{}, validationError("booking_id is required")
	}
	b, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return domain.Booking{}, err
	}
	s.publish(ctx, events.TypeBookingDeleted, b)
	return b, nil
}

// publish never fails the caller; the booking is already committed.
func (s *Service) publish(ctx context.Context, eventType string, b domain.Booking) {
	ev := events.NewBookingEvent(eventType, b, s.now())
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, ev); err != nil {
		s.log.WarnContext(ctx, "failed to publish booking event",
			slog.String("event_type", eventType),
			slog.String("booking_id", b.ID.String()),
			slog.Any("err", err),
		)
	}
}

func (s *Service) recordOutcome(ctx context.Context, err error) {
	if s.outcomes == nil {
		return
	}
	s.outcomes.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", outcomeOf(err))))
}

func outcomeOf(err error) string {
	var vErr *ValidationError
	switch {
	case err == nil:
		return "created"
	case errors.As(err, &vErr), errors.Is(err, store.ErrInvalidRange):
		return "invalid_request"
	case errors.Is(err, ErrExternalConflict):
		return "external_conflict"
	case errors.Is(err, store.ErrSerialization):
		return "transient_store_failure"
	case errors.Is(err, store.ErrConflict):
		return "local_conflict"
	default:
		return "error"
	}
}
