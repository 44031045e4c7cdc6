// Package calendar answers whether an owner's external calendar is free over
// an interval. Answers are advisory: any failure other than a missing linked
// account degrades to "free".
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/store"
)

const (
	DefaultCalendarID = "primary"
	DefaultTimeout    = 3 * time.Second

	instrumentationName = "slotguard/backend/internal/calendar"
)

// ErrNoExternalAccount means the owner never linked a calendar, so
// availability is unknown.
var ErrNoExternalAccount = errors.New("calendar: no external account")

type Oracle interface {
	IsFree(ctx context.Context, ownerID string, iv domain.Interval) (bool, error)
}

// BusyPeriod is a span reported busy by the remote calendar.
type BusyPeriod struct {
	Start time.Time
	End   time.Time
}

func (p BusyPeriod) Interval() domain.Interval {
	return domain.NewInterval(p.Start, p.End)
}

// FreeBusyClient queries a remote calendar for busy periods in [iv.Start, iv.End].
type FreeBusyClient interface {
	BusyPeriods(ctx context.Context, ownerID string, creds store.ExternalCredentials, calendarID string, iv domain.Interval) ([]BusyPeriod, error)
}

type Config struct {
	CalendarID string
	Timeout    time.Duration
	// RateLimit is the sustained number of outbound queries per second. Zero
	// disables limiting.
	RateLimit float64
	Burst     int
}

type Adapter struct {
	creds      store.CredentialStore
	client     FreeBusyClient
	calendarID string
	timeout    time.Duration
	limiter    *rate.Limiter
	log        *slog.Logger
	tracer     trace.Tracer
	degraded   metric.Int64Counter
}

func NewAdapter(creds store.CredentialStore, client FreeBusyClient, cfg Config, log *slog.Logger) (*Adapter, error) {
	if creds == nil || client == nil {
		return nil, errors.New("calendar: credential store and client are required")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	degraded, err := otel.Meter(instrumentationName).Int64Counter(
		"calendar.freebusy.degraded",
		metric.WithDescription("Free/busy checks that failed and were treated as free."),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: degraded counter: %w", err)
	}

	a := &Adapter{
		creds:      creds,
		client:     client,
		calendarID: cfg.CalendarID,
		timeout:    cfg.Timeout,
		log:        log.With(slog.String("component", "calendar")),
		tracer:     otel.Tracer(instrumentationName),
		degraded:   degraded,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return a, nil
}

// IsFree reports whether no busy period of the owner's calendar overlaps iv.
// It returns ErrNoExternalAccount when the owner has no linked account; every
// other failure is logged and reported as free.
func (a *Adapter) IsFree(ctx context.Context, ownerID string, iv domain.Interval) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "calendar.IsFree", trace.WithAttributes(
		attribute.String("calendar.id", a.calendarID),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	creds, err := a.creds.GetExternalCredentials(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		span.SetAttributes(attribute.Bool("calendar.linked", false))
		return false, ErrNoExternalAccount
	}
	if err != nil {
		return a.degrade(ctx, span, ownerID, "credentials", err)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return a.degrade(ctx, span, ownerID, "rate_limit", err)
		}
	}

	busy, err := a.client.BusyPeriods(ctx, ownerID, creds, a.calendarID, iv)
	if err != nil {
		reason := "query"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return a.degrade(ctx, span, ownerID, reason, err)
	}

	for _, p := range busy {
		if p.Interval().Overlaps(iv) {
			span.SetAttributes(attribute.Bool("calendar.free", false))
			return false, nil
		}
	}
	span.SetAttributes(attribute.Bool("calendar.free", true))
	return true, nil
}

func (a *Adapter) degrade(ctx context.Context, span trace.Span, ownerID, reason string, err error) (bool, error) {
	a.log.WarnContext(ctx, "free/busy check failed, treating interval as free",
		slog.String("owner_id", ownerID),
		slog.String("reason", reason),
		slog.Any("err", err),
	)
	span.RecordError(err, trace.WithAttributes(attribute.String("calendar.degraded_reason", reason)))
	span.SetStatus(codes.Error, reason)
	a.degraded.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("reason", reason)))
	return true, nil
}

// Disabled is the oracle used when calendar checks are switched off. Every
// owner looks unlinked.
type Disabled struct{}

func (Disabled) IsFree(ctx context.Context, ownerID string, iv domain.Interval) (bool, error) {
	return false, ErrNoExternalAccount
}

type Connection struct {
	Connected   bool
	ConnectedAt time.Time
}

// ConnectionStatus reports whether the owner has a linked calendar account.
func ConnectionStatus(ctx context.Context, creds store.CredentialStore, ownerID string) (Connection, error) {
	c, err := creds.GetExternalCredentials(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return Connection{}, nil
	}
	if err != nil {
		return Connection{}, err
	}
	return Connection{Connected: true, ConnectedAt: c.ConnectedAt.UTC()}, nil
}
