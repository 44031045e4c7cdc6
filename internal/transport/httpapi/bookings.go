package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"slotguard/backend/internal/calendar"
	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/identity"
	"slotguard/backend/internal/service/bookings"
)

const maxBodyBytes = 1 << 20

type createBookingRequest struct {
	Title string     `json:"title" validate:"required,max=500"`
	Start *time.Time `json:"start" validate:"required"`
	End   *time.Time `json:"end" validate:"required"`
}

type bookingResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type connectionResponse struct {
	Connected   bool    `json:"connected"`
	ConnectedAt *string `json:"connected_at,omitempty"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID.String(),
		OwnerID:   b.OwnerID,
		Title:     b.Title,
		Start:     formatTime(b.StartTime),
		End:       formatTime(b.EndTime),
		CreatedAt: formatTime(b.CreatedAt),
		UpdatedAt: formatTime(b.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (a *API) createBooking(w http.ResponseWriter, r *http.Request) {
	owner, _ := identity.OwnerFromContext(r.Context())
	log := a.log.With(slog.String("handler", "createBooking"), slog.String("owner_id", owner))

	var req createBookingRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		log.Warn("invalid request body", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "request body must be JSON with title, start and end as RFC 3339 timestamps", nil)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := a.validate.Struct(req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, codeInvalidRequest, validationMessage(err), nil)
		return
	}

	b, err := a.svc.CreateBooking(r.Context(), bookings.CreateInput{
		OwnerID: owner,
		Title:   req.Title,
		Start:   *req.Start,
		End:     *req.End,
	})
	if err != nil {
		a.respondError(w, log, "booking create failed", err)
		return
	}

	log.Info("booking created",
		slog.String("booking_id", b.ID.String()),
		slog.Time("start", b.StartTime),
		slog.Time("end", b.EndTime),
	)
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (a *API) listBookings(w http.ResponseWriter, r *http.Request) {
	owner, _ := identity.OwnerFromContext(r.Context())
	log := a.log.With(slog.String("handler", "listBookings"), slog.String("owner_id", owner))

	rows, err := a.svc.ListBookings(r.Context(), owner)
	if err != nil {
		a.respondError(w, log, "booking list failed", err)
		return
	}

	out := make([]bookingResponse, 0, len(rows))
	for _, b := range rows {
		out = append(out, toBookingResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getBooking(w http.ResponseWriter, r *http.Request) {
	owner, _ := identity.OwnerFromContext(r.Context())
	log := a.log.With(slog.String("handler", "getBooking"), slog.String("owner_id", owner))

	id, ok := parseBookingID(w, r)
	if !ok {
		return
	}
	b, err := a.svc.GetBooking(r.Context(), owner, id)
	if err != nil {
		a.respondError(w, log, "booking get failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (a *API) deleteBooking(w http.ResponseWriter, r *http.Request) {
	owner, _ := identity.OwnerFromContext(r.Context())
	log := a.log.With(slog.String("handler", "deleteBooking"), slog.String("owner_id", owner))

	id, ok := parseBookingID(w, r)
	if !ok {
		return
	}
	b, err := a.svc.DeleteBooking(r.Context(), owner, id)
	if err != nil {
		a.respondError(w, log, "booking delete failed", err)
		return
	}

	log.Info("booking deleted", slog.String("booking_id", b.ID.String()))
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (a *API) calendarConnection(w http.ResponseWriter, r *http.Request) {
	owner, _ := identity.OwnerFromContext(r.Context())
	if a.creds == nil {
		writeJSON(w, http.StatusOK, connectionResponse{})
		return
	}

	conn, err := calendar.ConnectionStatus(r.Context(), a.creds, owner)
	if err != nil {
		a.respondError(w, a.log.With(slog.String("handler", "calendarConnection")), "calendar connection lookup failed", err)
		return
	}
	resp := connectionResponse{Connected: conn.Connected}
	if conn.Connected && !conn.ConnectedAt.IsZero() {
		at := formatTime(conn.ConnectedAt)
		resp.ConnectedAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) respondError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	m := mapError(err)
	switch {
	case m.status >= http.StatusInternalServerError:
		log.Error(msg, slog.Any("err", err))
	case m.status == http.StatusConflict:
		log.Info(msg, slog.String("code", m.code), slog.Any("err", err))
	default:
		log.Warn(msg, slog.String("code", m.code), slog.Any("err", err))
	}
	writeError(w, m.status, m.code, m.message, m.details)
}

func parseBookingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid booking id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func validationMessage(err error) string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return "invalid request"
	}
	msgs := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, field+" must be at most "+fe.Param()+" characters")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
