package service

import (
	"context"
	"testing"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"
	"github.com/GabrielAlexander97/neverpayforads/pkg/cryptox"
	"github.com/GabrielAlexander97/neverpayforads/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSession_MagicLinkToEntitlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := newVerifier()

	// Issue and redeem a link for a user with no membership.
	require.NoError(t, f.tokens.Send(ctx, "a@example.com"))
	email, err := f.tokens.Redeem(ctx, f.latestSecret(t, "a@example.com"))
	require.NoError(t, err)

	_, cookie, err := f.sessions.Bind(ctx, email)
	require.NoError(t, err)

	st, err := f.sessions.Status(ctx, cookie)
	require.NoError(t, err)
	require.True(t, st.Authenticated)
	require.False(t, st.Entitled)
	require.Equal(t, "a@example.com", st.Email)

	// A qualifying webhook for the same email arrives.
	body := []byte(`{"id":1001,"email":"a@example.com","line_items":[{"sku":"NPFA-MEMBERSHIP-30D"}]}`)
	order, err := v.Verify(body, WebhookHeaders{
		Signature: cryptox.SignHMACSHA256(testSecret, body),
		Domain:    testDomain,
		Topic:     TopicOrdersPaid,
	})
	require.NoError(t, err)
	_, err = f.activate.Activate(ctx, order)
	require.NoError(t, err)

	st, err = f.sessions.Status(ctx, cookie)
	require.NoError(t, err)
	require.True(t, st.Authenticated)
	require.True(t, st.Entitled)
	require.Equal(t, domain.UserStatusActive, st.Status)
	require.NotNil(t, st.ExpiresAt)
	require.True(t, st.ExpiresAt.Equal(f.clock.Now().Add(domain.MembershipDuration)))
}

func TestSession_LapsedUserFlipsToExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.activate.Activate(ctx, qualifyingOrder("1001", "a@example.com"))
	require.NoError(t, err)
	_, cookie, err := f.sessions.Bind(ctx, "a@example.com")
	require.NoError(t, err)

	// Jump past the membership but keep the session alive.
	f.clock.Advance(domain.MembershipDuration + time.Minute)
	st, err := f.sessions.StatusForEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.False(t, st.Entitled)
	require.Equal(t, domain.UserStatusExpired, st.Status)

	u, err := f.store.Users().GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.UserStatusExpired, u.Status)

	// The cookie has expired by now too.
	st, err = f.sessions.Status(ctx, cookie)
	require.NoError(t, err)
	require.False(t, st.Authenticated)
}

func TestSession_StatusWithoutSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, cookie := range []string{"", "garbage", "a.b.c"} {
		st, err := f.sessions.Status(ctx, cookie)
		require.NoError(t, err)
		require.Equal(t, SessionStatus{}, st)
	}
}

func TestSession_UnknownUserIsNotEntitled(t *testing.T) {
	f := newFixture(t)
	st, err := f.sessions.StatusForEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	require.True(t, st.Authenticated)
	require.False(t, st.Entitled)
	require.Empty(t, st.Status)
}

func TestSession_ExpiresAfterTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, cookie, err := f.sessions.Bind(ctx, "a@example.com")
	require.NoError(t, err)

	f.clock.Advance(23 * time.Hour)
	_, err = f.sessions.Authenticate(ctx, cookie)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.sessions.Authenticate(ctx, cookie)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSession_SignedCookieWithForeignSessionID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cookie, err := f.sessions.Signer.Sign(jwtx.NewSessionClaims("../../etc/passwd", "a@example.com", "npfa", time.Hour, f.clock.Now()))
	require.NoError(t, err)

	_, err = f.sessions.Authenticate(ctx, cookie)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSession_LogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, cookie, err := f.sessions.Bind(ctx, "a@example.com")
	require.NoError(t, err)

	require.NoError(t, f.sessions.Logout(ctx, cookie))
	require.NoError(t, f.sessions.Logout(ctx, cookie))
	require.NoError(t, f.sessions.Logout(ctx, ""))
	require.NoError(t, f.sessions.Logout(ctx, "garbage"))

	_, err = f.store.Sessions().GetSession(ctx, sess.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	st, err := f.sessions.Status(ctx, cookie)
	require.NoError(t, err)
	require.False(t, st.Authenticated)
}
