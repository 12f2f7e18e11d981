package logger

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	loggerKey
	accessKey
)

// GenerateRequestID returns a 16 hex char id
func GenerateRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithLogger stores l as the request-scoped logger
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the request-scoped logger, falling back to the default logger
// tagged with the request id when one is known.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	l := Default()
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		l = l.With("request_id", requestID)
	}
	return l
}

// accessFields collects the attributes handlers attach to a request's access-log line.
type accessFields struct {
	mu    sync.Mutex
	attrs []any
}

func withAccessFields(ctx context.Context) (context.Context, *accessFields) {
	f := &accessFields{}
	return context.WithValue(ctx, accessKey, f), f
}

// Annotate adds key/value pairs (user_id, statement_id, row counts...) to the
// http_request line logged for the current request. No-op outside HTTPMiddleware.
func Annotate(ctx context.Context, args ...any) {
	f, ok := ctx.Value(accessKey).(*accessFields)
	if !ok {
		return
	}
	f.mu.Lock()
	f.attrs = append(f.attrs, args...)
	f.mu.Unlock()
}

func (f *accessFields) snapshot() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.attrs...)
}
