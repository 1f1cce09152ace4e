package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/metrics"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"
	"github.com/GabrielAlexander97/neverpayforads/pkg/cryptox"
	"github.com/GabrielAlexander97/neverpayforads/pkg/idx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
	"github.com/go-playground/validator/v10"
)

// VerifyPath is where magic links point.
const VerifyPath = "/v1/auth/magic/verify"

var validate = validator.New(validator.WithRequiredStructEnabled())

// TokenService issues and redeems single-use magic-link tokens. Only the
// fingerprint of a secret is ever stored.
type TokenService struct {
	Store    store.Store
	Mailer   mail.Mailer
	Executor Executor
	Metrics  metrics.Recorder

	// BaseURL is the public origin the verify link is built on.
	BaseURL string
	TTL     time.Duration
	Now     func() time.Time
}

func (s *TokenService) ttl() time.Duration {
	if s.TTL <= 0 {
		return domain.LoginTokenTTL
	}
	return s.TTL
}

func (s *TokenService) recorder() metrics.Recorder {
	if s.Metrics == nil {
		return metrics.Nop{}
	}
	return s.Metrics
}

// NormalizeAndValidateEmail lower-cases and trims email and checks its shape.
func NormalizeAndValidateEmail(email string) (string, error) {
	email = domain.NormalizeEmail(email)
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Issue creates a fresh token for email and returns the secret. The secret
// is not stored and cannot be recovered later.
func (s *TokenService) Issue(ctx context.Context, email string) (string, error) {
	now := nowOr(s.Now)

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	tok := domain.LoginToken{
		ID:        idx.NewAt(now).String(),
		Email:     email,
		TokenHash: cryptox.FingerprintToken(secret),
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}
	if err := s.Store.LoginTokens().CreateLoginToken(ctx, tok); err != nil {
		return "", fmt.Errorf("%w: create login token: %v", ErrStoreFailure, err)
	}

	s.recorder().RecordTokenIssued()
	return secret, nil
}

// Redeem exchanges a secret for the email it was issued to. Unknown, used
// and expired secrets all fail with ErrInvalidOrExpiredToken so callers
// cannot tell which case occurred. Of concurrent redeemers at most one wins.
func (s *TokenService) Redeem(ctx context.Context, secret string) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		s.recorder().RecordRedemption(false)
		return "", ErrInvalidOrExpiredToken
	}

	email, err := s.Store.LoginTokens().RedeemLoginToken(ctx, cryptox.FingerprintToken(secret), nowOr(s.Now))
	if err != nil {
		s.recorder().RecordRedemption(false)
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidOrExpiredToken
		}
		return "", fmt.Errorf("%w: redeem login token: %v", ErrStoreFailure, err)
	}

	s.recorder().RecordRedemption(true)
	return email, nil
}

// LoginLink embeds secret in the verify URL.
func (s *TokenService) LoginLink(secret string) string {
	return strings.TrimRight(s.BaseURL, "/") + VerifyPath + "?token=" + url.QueryEscape(secret)
}

// Deliver emails the login link for secret to email.
func (s *TokenService) Deliver(ctx context.Context, email, secret string) error {
	msg, err := mail.MagicLinkMessage(email, s.LoginLink(secret), s.ttl(), nowOr(s.Now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}

	err = s.Mailer.Send(ctx, msg)
	s.recorder().RecordEmail(err)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}
	return nil
}

// IssueAndDeliver issues a token and delivers it in the caller's goroutine.
func (s *TokenService) IssueAndDeliver(ctx context.Context, email string) error {
	secret, err := s.Issue(ctx, email)
	if err != nil {
		return err
	}
	return s.Deliver(ctx, email, secret)
}

// Send handles a magic-link request: the user is created (inactive) if
// unseen, a token is issued and delivery is handed to the executor. The
// outcome does not depend on whether the email was known.
func (s *TokenService) Send(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	email, err := NormalizeAndValidateEmail(email)
	if err != nil {
		return err
	}
	now := nowOr(s.Now)

	// 1. Make sure the user exists
	if _, err := s.Store.Users().EnsureUser(ctx, domain.User{
		ID:        idx.NewAt(now).String(),
		Email:     email,
		Status:    domain.UserStatusInactive,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("%w: ensure user: %v", ErrStoreFailure, err)
	}

	// 2. Issue
	secret, err := s.Issue(ctx, email)
	if err != nil {
		return err
	}

	// 3. Deliver off the request path
	submitErr := s.executor().Submit(ctx, "deliver_magic_link", func(ctx context.Context) error {
		return s.Deliver(ctx, email, secret)
	})
	if submitErr != nil {
		log.Error("magic link delivery failed", slogx.Email("email", email), slog.Any("error", submitErr))
	}

	log.Info("magic link issued", slogx.Email("email", email))
	return nil
}

func (s *TokenService) executor() Executor {
	if s.Executor == nil {
		return InlineExecutor{}
	}
	return s.Executor
}
