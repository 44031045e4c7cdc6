// Package httpapi exposes the booking service as a JSON API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/identity"
	"slotguard/backend/internal/service/bookings"
	"slotguard/backend/internal/store"
)

type bookingsService interface {
	CreateBooking(ctx context.Context, in bookings.CreateInput) (domain.Booking, error)
	ListBookings(ctx context.Context, ownerID string) ([]domain.Booking, error)
	GetBooking(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error)
	DeleteBooking(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error)
}

type Config struct {
	RequestTimeout time.Duration
}

type API struct {
	svc      bookingsService
	creds    store.CredentialStore
	verifier *identity.Verifier
	validate *validator.Validate
	log      *slog.Logger
}

// NewRouter wires the middleware stack and routes. creds may be nil, in which
// case every owner reports no linked calendar.
func NewRouter(svc bookingsService, creds store.CredentialStore, verifier *identity.Verifier, cfg Config, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	api := &API{
		svc:      svc,
		creds:    creds,
		verifier: verifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With(slog.String("component", "http")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(api.log))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(api.authenticate)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", api.createBooking)
			r.Get("/", api.listBookings)
			r.Get("/{id}", api.getBooking)
			r.Delete("/{id}", api.deleteBooking)
		})
		r.Get("/calendar/connection", api.calendarConnection)
	})

	return r
}
