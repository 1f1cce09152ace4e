package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"
	"github.com/GabrielAlexander97/neverpayforads/pkg/idx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/jwtx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

// SessionStatus answers "who is calling and are they entitled".
type SessionStatus struct {
	Authenticated bool
	Entitled      bool
	Email         string
	Status        domain.UserStatus
	ExpiresAt     *time.Time
}

// SessionService binds redeemed tokens to server-side sessions. The browser
// holds a signed cookie naming the session; entitlement is recomputed from
// the user row on every status call.
type SessionService struct {
	Store store.Store

	// Sessions overrides Store.Sessions(), e.g. with the Redis store.
	Sessions store.Sessions

	Signer jwtx.Signer
	Verify jwtx.Verifier
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

func (s *SessionService) sessions() store.Sessions {
	if s.Sessions != nil {
		return s.Sessions
	}
	return s.Store.Sessions()
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultSessionTTL
	}
	return s.TTL
}

// Bind creates a session for email and returns it with the signed cookie value.
func (s *SessionService) Bind(ctx context.Context, email string) (domain.Session, string, error) {
	now := nowOr(s.Now)

	sess := domain.Session{
		ID:        idx.NewAt(now).String(),
		Email:     email,
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}
	if err := s.sessions().CreateSession(ctx, sess); err != nil {
		return domain.Session{}, "", fmt.Errorf("%w: create session: %v", ErrStoreFailure, err)
	}

	token, err := s.Signer.Sign(jwtx.NewSessionClaims(sess.ID, email, s.Issuer, s.ttl(), now))
	if err != nil {
		return domain.Session{}, "", err
	}

	slogx.FromContext(ctx).Info("session bound", slogx.Email("email", email), slog.String("session_id", sess.ID))
	return sess, token, nil
}

// Authenticate resolves a cookie value to a live session. Any bad, expired
// or unknown cookie yields ErrNoSession.
func (s *SessionService) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, ErrNoSession
	}
	now := nowOr(s.Now)

	claims, err := s.Verify.Verify(token, now)
	if err != nil {
		slogx.FromContext(ctx).Debug("session cookie rejected", slog.Any("error", err))
		return domain.Session{}, ErrNoSession
	}

	sid, err := idx.Parse(claims.SID)
	if err != nil {
		return domain.Session{}, ErrNoSession
	}

	sess, err := s.sessions().GetSession(ctx, sid.String())
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, ErrNoSession
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: get session: %v", ErrStoreFailure, err)
	}
	if sess.IsExpired(now) {
		return domain.Session{}, ErrNoSession
	}
	return sess, nil
}

// Status reports the caller's entitlement. A missing session is a normal
// unauthenticated result, not an error. An active user whose expiry has
// passed is flipped to expired as part of the read.
func (s *SessionService) Status(ctx context.Context, token string) (SessionStatus, error) {
	sess, err := s.Authenticate(ctx, token)
	if errors.Is(err, ErrNoSession) {
		return SessionStatus{}, nil
	}
	if err != nil {
		return SessionStatus{}, err
	}
	return s.StatusForEmail(ctx, sess.Email)
}

// StatusForEmail evaluates entitlement for an authenticated email.
func (s *SessionService) StatusForEmail(ctx context.Context, email string) (SessionStatus, error) {
	now := nowOr(s.Now)
	st := SessionStatus{Authenticated: true, Email: email}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return st, nil
	}
	if err != nil {
		return SessionStatus{}, fmt.Errorf("%w: get user: %v", ErrStoreFailure, err)
	}

	st.Entitled = user.IsEntitled(now)
	st.Status = user.Status
	st.ExpiresAt = user.ExpiresAt

	if user.IsLapsed(now) {
		changed, err := s.Store.Users().ExpireIfLapsed(ctx, email, now)
		if err != nil {
			return SessionStatus{}, fmt.Errorf("%w: expire user: %v", ErrStoreFailure, err)
		}
		st.Status = domain.UserStatusExpired
		if changed {
			slogx.FromContext(ctx).Info("membership lapsed", slogx.Email("email", email))
		}
	}

	return st, nil
}

// Logout removes the session behind token. Unknown or invalid cookies are
// not an error.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.Verify.Verify(token, nowOr(s.Now))
	if err != nil {
		return nil
	}
	sid, err := idx.Parse(claims.SID)
	if err != nil {
		return nil
	}
	if err := s.sessions().DeleteSession(ctx, sid.String()); err != nil {
		return fmt.Errorf("%w: delete session: %v", ErrStoreFailure, err)
	}
	return nil
}
