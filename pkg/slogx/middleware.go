package slogx

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// HTTPMiddleware logs requests and attaches a contextual logger into
// request context. Credential-bearing headers are never logged.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			// Honor a caller-provided X-Request-ID, generate otherwise
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = ulid.MustNew(ulid.Now(), rand.Reader).String()
			}

			logger := base.With(
				"req_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := WithContext(r.Context(), logger)
			next.ServeHTTP(rw, r.WithContext(ctx))

			logger.Info("http_request",
				"status", rw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter

	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
