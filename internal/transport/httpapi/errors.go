package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"slotguard/backend/internal/service/bookings"
	"slotguard/backend/internal/store"
)

const (
	codeInvalidRequest   = "INVALID_REQUEST"
	codeLocalConflict    = "LOCAL_CONFLICT"
	codeExternalConflict = "EXTERNAL_CONFLICT"
	codeNotFound         = "NOT_FOUND"
	codeUnauthenticated  = "UNAUTHENTICATED"
	codeInternal         = "INTERNAL"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type mappedError struct {
	status  int
	code    string
	message string
	details map[string]any
}

func mapError(err error) mappedError {
	var vErr *bookings.ValidationError
	switch {
	case errors.As(err, &vErr):
		return mappedError{http.StatusBadRequest, codeInvalidRequest, vErr.Error(), nil}
	case errors.Is(err, store.ErrInvalidRange):
		return mappedError{http.StatusBadRequest, codeInvalidRequest, "end must be after start", nil}
	case errors.Is(err, bookings.ErrExternalConflict):
		return mappedError{http.StatusConflict, codeExternalConflict, "Your calendar is busy during that time. Pick a different slot.", nil}
	case errors.Is(err, store.ErrSerialization):
		return mappedError{http.StatusConflict, codeLocalConflict, "The booking could not be confirmed because of concurrent changes. Try again.", map[string]any{"retryable": true}}
	case errors.Is(err, store.ErrConflict):
		return mappedError{http.StatusConflict, codeLocalConflict, "You already have a booking during that time. Pick a different slot.", nil}
	case errors.Is(err, store.ErrNotFound):
		return mappedError{http.StatusNotFound, codeNotFound, "booking not found", nil}
	default:
		return mappedError{http.StatusInternalServerError, codeInternal, "internal error", nil}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, errorBody{Code: code, Message: message, Details: details})
}
