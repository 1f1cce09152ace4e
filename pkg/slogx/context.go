package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request-scoped logger, or the default logger when
// none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// Detach carries the logger of ctx over to a fresh background context. Work
// handed to the background executor outlives the request, so it must not
// inherit the request's cancellation.
func Detach(ctx context.Context) context.Context {
	return WithContext(context.Background(), FromContext(ctx))
}
