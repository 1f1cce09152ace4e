package httpx

import "context"

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// WithPrincipal records who an authenticated request acts as (for example
// "admin:ops"). Rate limiting keys on it when present.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, principal)
}

// PrincipalFromContext returns the principal set by WithPrincipal.
func PrincipalFromContext(ctx context.Context) string {
	p, _ := ctx.Value(ctxKeyPrincipal).(string)
	return p
}
