package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logger logs every request with method, path, status and duration.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
			}

			if ww.Status() >= http.StatusInternalServerError {
				slog.Error("Request failed", attrs...)
			} else if ww.Status() >= http.StatusBadRequest {
				slog.Warn("Request rejected", attrs...)
			} else {
				slog.Info("Request completed", attrs...)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}
