package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/service"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store/drivers/sqlite"
	"github.com/GabrielAlexander97/neverpayforads/pkg/cryptox"
	"github.com/GabrielAlexander97/neverpayforads/pkg/jwtx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	testDomain    = "npfa-test.myshopify.com"
	testSKU       = "NPFA-MEMBERSHIP-30D"
	testBase      = "https://api.example.com"
	testDashboard = "https://app.example.com/dashboard"
	testAdminPass = "correct horse battery staple"
	testTOTP      = "JBSWY3DPEHPK3PXP"
)

var (
	testSecret = []byte("shpss_test_webhook_secret")
	t0         = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	router *Router
	store  *sqlite.Store
	clock  *fakeClock
	outbox *mail.Outbox
}

type envOption func(*Router)

func withTOTP() envOption {
	return func(r *Router) { r.AdminAuth.TOTPSecret = testTOTP }
}

func withoutOutbox() envOption {
	return func(r *Router) { r.Outbox = nil }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := &fakeClock{now: t0}
	outbox := mail.NewOutbox(100)

	hs, err := jwtx.NewHS256("npfa", "k1", []byte("0123456789abcdef0123456789abcdef"), nil)
	require.NoError(t, err)

	hasher := cryptox.PasswordHasher{Pepper: "pepper"}
	hash, err := hasher.Hash(testAdminPass)
	require.NoError(t, err)

	tokens := &service.TokenService{Store: st, Mailer: outbox, BaseURL: testBase, Now: clock.Now}

	r := NewRouter("test", slogx.Discard())
	r.WebhookVerifier = &service.WebhookVerifier{
		Domain:     testDomain,
		Secret:     testSecret,
		Classifier: service.NewClassifier(testSKU, "membership"),
	}
	r.Activator = &service.Activator{Store: st, Tokens: tokens, Now: clock.Now}
	r.TokenService = tokens
	r.SessionService = &service.SessionService{Store: st, Signer: hs, Verify: hs, Issuer: "npfa", Now: clock.Now}
	r.AdminService = &service.AdminService{Store: st, Tokens: tokens, Now: clock.Now}
	r.AdminAuth = &AdminAuth{PasswordHash: hash, Hasher: hasher, Now: clock.Now}
	r.Outbox = outbox
	r.Cookie = CookieConfig{Secure: true, TTL: 24 * time.Hour}
	r.DashboardURL = testDashboard
	r.MembershipSKU = testSKU
	r.Checks["database"] = st.Ping

	for _, o := range opts {
		o(r)
	}
	r.ApplyRoutes()

	return &testEnv{router: r, store: st, clock: clock, outbox: outbox}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func orderBody(id int64, email, sku string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%d,"email":%q,"customer":{"id":7001},"tags":"","line_items":[{"sku":%q,"title":"NeverPayForAds 30 days","quantity":1}]}`,
		id, email, sku,
	))
}

func webhookRequest(body []byte, mutate func(h http.Header)) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/shopify/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(service.HeaderHMAC, cryptox.SignHMACSHA256(testSecret, body))
	req.Header.Set(service.HeaderDomain, testDomain)
	req.Header.Set(service.HeaderTopic, service.TopicOrdersPaid)
	if mutate != nil {
		mutate(req.Header)
	}
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	require.Equal(t, code, decodeBody[membersdk.ErrorResponse](t, rec).Error)
}

// latestSecret pulls the token out of the newest email sent to email.
func (e *testEnv) latestSecret(t *testing.T, email string) string {
	t.Helper()
	msg, ok := e.outbox.Latest(email)
	require.True(t, ok, "no email sent to %s", email)
	prefix := testBase + service.VerifyPath + "?token="
	require.Greater(t, len(msg.ActionURL), len(prefix))
	return msg.ActionURL[len(prefix):]
}

func sendMagicLink(t *testing.T, e *testEnv, email string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(membersdk.SendMagicLinkRequest{Email: email})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/magic/send", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == membersdk.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", membersdk.SessionCookieName)
	return nil
}

func httptestBody(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

func activateParams(email string, expiresAt, now time.Time) store.ActivateUserParams {
	return store.ActivateUserParams{ID: "unused", Email: email, ExpiresAt: expiresAt, Now: now}
}
