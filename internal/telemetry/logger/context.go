package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	loggerKey contextKey = "keymesh.logger"
	connIDKey contextKey = "keymesh.conn_id"
)

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return Default().Slog()
}

// WithConnID records the client connection serving ctx.
func WithConnID(ctx context.Context, connID string) context.Context {
	return context.WithValue(ctx, connIDKey, connID)
}

// ConnIDFromContext returns the connection ID, or "" outside a connection.
func ConnIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(connIDKey).(string); ok {
		return id
	}
	return ""
}

// L returns the context logger tagged with the connection ID, if any.
func L(ctx context.Context) *slog.Logger {
	return Tag(ctx, FromContext(ctx))
}

// Tag adds the connection ID carried by ctx to l.
func Tag(ctx context.Context, l *slog.Logger) *slog.Logger {
	if connID := ConnIDFromContext(ctx); connID != "" {
		return l.With("conn_id", connID)
	}
	return l
}
