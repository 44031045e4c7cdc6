package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"slotguard/backend/internal/identity"
)

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(r.Context(), level, "http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// authenticate resolves the owner from the bearer token and stores it in the
// request context.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := a.verifier.VerifyHeader(r.Header.Get("Authorization"))
		if err != nil {
			a.log.Info("unauthenticated request",
				slog.String("path", r.URL.Path),
				slog.String("reason", err.Error()),
			)
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "a valid bearer token is required", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithOwner(r.Context(), owner)))
	})
}
