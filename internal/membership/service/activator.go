package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/metrics"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"
	"github.com/GabrielAlexander97/neverpayforads/pkg/idx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

// Activation results reported to metrics.
const (
	ActivationActivated        = "activated"
	ActivationAlreadyProcessed = "already_processed"
	ActivationFailed           = "failed"
)

type ActivationResult struct {
	User       domain.User
	Membership domain.Membership

	// AlreadyProcessed is set when the order id was recorded before. The
	// user row is still refreshed; no membership row or login email is added.
	AlreadyProcessed bool

	// LoginLinkSent reports whether the follow-up login email went out.
	LoginLinkSent bool
}

// Activator turns a verified, qualifying order into an active membership.
type Activator struct {
	Store   store.Store
	Tokens  *TokenService
	Metrics metrics.Recorder
	Now     func() time.Time

	// Duration overrides domain.MembershipDuration in tests.
	Duration time.Duration
}

func (a *Activator) recorder() metrics.Recorder {
	if a.Metrics == nil {
		return metrics.Nop{}
	}
	return a.Metrics
}

// Activate upserts the user and records the membership in one transaction,
// then sends a login link. Expiry is always now + 30 days; renewals restart
// the window rather than stacking. Only store failures are returned; a
// failed login email is logged and does not undo the activation.
func (a *Activator) Activate(ctx context.Context, order domain.VerifiedOrder) (ActivationResult, error) {
	log := slogx.FromContext(ctx).With(slog.String("order_id", order.ID))

	if !order.Classification.Qualifies() {
		return ActivationResult{}, ErrNotQualified
	}
	if order.Email == "" {
		a.recorder().RecordActivation(ActivationFailed)
		return ActivationResult{}, ErrMissingEmail
	}

	now := nowOr(a.Now)
	duration := a.Duration
	if duration <= 0 {
		duration = domain.MembershipDuration
	}
	expiresAt := now.Add(duration)

	var res ActivationResult

	// 1. User upsert + membership row, atomically
	err := a.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().ActivateUser(ctx, store.ActivateUserParams{
			ID:          idx.NewAt(now).String(),
			Email:       order.Email,
			CustomerRef: order.CustomerRef,
			ExpiresAt:   expiresAt,
			Now:         now,
		})
		if err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		res.User = user

		m := domain.Membership{
			ID:         idx.NewAt(now).String(),
			UserID:     user.ID,
			OrderID:    order.ID,
			SKU:        order.Classification.MatchedSKU,
			ActiveFrom: now,
			ActiveTo:   expiresAt,
			CreatedAt:  now,
		}
		err = tx.Memberships().CreateMembership(ctx, m)
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			res.AlreadyProcessed = true
		case err != nil:
			return fmt.Errorf("create membership: %w", err)
		default:
			res.Membership = m
		}
		return nil
	})
	if err != nil {
		a.recorder().RecordActivation(ActivationFailed)
		return ActivationResult{}, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	if res.AlreadyProcessed {
		a.recorder().RecordActivation(ActivationAlreadyProcessed)
		log.Info("order already processed, membership refreshed", slogx.Email("email", order.Email))
		return res, nil
	}
	a.recorder().RecordActivation(ActivationActivated)
	log.Info("membership activated",
		slogx.Email("email", order.Email),
		slog.Time("expires_at", expiresAt),
	)

	// 2. Login link, best effort
	if a.Tokens != nil {
		if err := a.Tokens.IssueAndDeliver(ctx, order.Email); err != nil {
			log.Error("login link after activation failed", slogx.Email("email", order.Email), slog.Any("error", err))
		} else {
			res.LoginLinkSent = true
		}
	}

	return res, nil
}
