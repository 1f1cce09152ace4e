package service

import (
	"context"
	"errors"
	"time"
)

var (
	// Webhook authentication failures. Surfaced to the sender.
	ErrMalformedRequest = errors.New("malformed_request")
	ErrUnknownSource    = errors.New("unknown_source")
	ErrInvalidSignature = errors.New("invalid_signature")

	// ErrInvalidOrExpiredToken covers unknown, used and expired tokens alike.
	ErrInvalidOrExpiredToken = errors.New("invalid_token")

	// Post-authentication failures. Logged, never surfaced to a webhook sender.
	ErrStoreFailure    = errors.New("store_failure")
	ErrDeliveryFailure = errors.New("delivery_failure")

	ErrInvalidEmail = errors.New("invalid_email")
	ErrMissingEmail = errors.New("missing_email")
	ErrNotQualified = errors.New("not_qualified")
	ErrUserNotFound = errors.New("user_not_found")
	ErrNoSession    = errors.New("no_session")
)

// Executor runs work after the caller has returned. worker.Pool implements it.
type Executor interface {
	Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// InlineExecutor runs tasks immediately on the caller's goroutine and
// returns their error. Used by tests and one-shot tools.
type InlineExecutor struct{}

func (InlineExecutor) Submit(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
