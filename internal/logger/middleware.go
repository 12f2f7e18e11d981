package logger

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const requestIDHeader = "X-Request-ID"

// statusRecorder remembers the status and body size written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status != 0 {
		return
	}
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.size += n
	return n, err
}

func (sr *statusRecorder) code() int {
	if sr.status == 0 {
		return http.StatusOK
	}
	return sr.status
}

// HTTPMiddleware logs every request through the default logger.
func HTTPMiddleware(next http.Handler) http.Handler {
	return AccessLog(nil)(next)
}

// AccessLog tags each request with a request id and a request-scoped logger, then
// writes one http_request line carrying any attributes handlers added via Annotate.
// A nil base uses Default().
func AccessLog(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base
			if l == nil {
				l = Default()
			}

			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = GenerateRequestID()
			}
			w.Header().Set(requestIDHeader, requestID)
			l = l.With("request_id", requestID)

			ctx := WithLogger(WithRequestID(r.Context(), requestID), l)
			ctx, fields := withAccessFields(ctx)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			if isQuietPath(r.URL.Path) {
				return
			}

			status := rec.code()
			attrs := append([]any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", rec.size,
				"duration_ms", time.Since(start).Milliseconds(),
			}, fields.snapshot()...)
			l.Log(ctx, statusLevel(status), "http_request", attrs...)
		})
	}
}

func statusLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// health checks poll too often to log
func isQuietPath(path string) bool {
	return path == "/api/health" || strings.HasPrefix(path, "/api/health/")
}
