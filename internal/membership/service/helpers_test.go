package service

import (
	"sync"
	"testing"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store/drivers/sqlite"
	"github.com/GabrielAlexander97/neverpayforads/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testDomain = "npfa-test.myshopify.com"
	testSKU    = "NPFA-MEMBERSHIP-30D"
	testBase   = "https://app.example.com"
)

var (
	testSecret  = []byte("shpss_test_webhook_secret")
	testSession = []byte("0123456789abcdef0123456789abcdef")
	t0          = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

// fakeClock is a settable clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }

type fixture struct {
	store    *sqlite.Store
	clock    *fakeClock
	outbox   *mail.Outbox
	tokens   *TokenService
	activate *Activator
	sessions *SessionService
	admin    *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	clock := newFakeClock(t0)
	outbox := mail.NewOutbox(100)

	hs, err := jwtx.NewHS256("npfa", "k1", testSession, nil)
	require.NoError(t, err)

	tokens := &TokenService{Store: s, Mailer: outbox, BaseURL: testBase, Now: clock.Now}
	return &fixture{
		store:    s,
		clock:    clock,
		outbox:   outbox,
		tokens:   tokens,
		activate: &Activator{Store: s, Tokens: tokens, Now: clock.Now},
		sessions: &SessionService{Store: s, Signer: hs, Verify: hs, Issuer: "npfa", Now: clock.Now},
		admin:    &AdminService{Store: s, Tokens: tokens, Now: clock.Now},
	}
}

// latestSecret pulls the token out of the newest email sent to email.
func (f *fixture) latestSecret(t *testing.T, email string) string {
	t.Helper()
	msg, ok := f.outbox.Latest(email)
	require.True(t, ok, "no email sent to %s", email)
	prefix := testBase + VerifyPath + "?token="
	require.Greater(t, len(msg.ActionURL), len(prefix))
	return msg.ActionURL[len(prefix):]
}
