package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithConnID attaches a connection-scoped logger to the context. Every
// protocol handler downstream logs with the same conn_id.
func WithConnID(ctx context.Context, connID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("conn_id", connID))
}
