package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*Application, *membersdk.Client) {
	t.Helper()
	dir := t.TempDir()

	cfg := Config{
		Env:                  EnvDev,
		LogLevel:             "error",
		LogFormat:            "text",
		ShutdownGracePeriod:  5 * time.Second,
		HousekeepingInterval: time.Hour,
		StoreDriver:          StoreSQLite,
		DatabaseFile:         filepath.Join(dir, "npfa.db"),
		SessionBackend:       SessionsDB,
		SessionTTL:           24 * time.Hour,
		ShopifyDomain:        "npfa-test.myshopify.com",
		ShopifyWebhookSecret: "shpss_app_test",
		MembershipSKU:        "NPFA-MEMBERSHIP-30D",
		PublicDashboardURL:   "http://localhost:3000/dashboard",
		PublicBaseURL:        "http://localhost:8080",
		MailDriver:           mail.DriverLog,
		PepperFile:           filepath.Join(dir, "pepper"),
		WorkerCount:          2,
		WorkerQueueSize:      16,
	}

	app, err := New(cfg)
	require.NoError(t, err)
	app.Start()

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, app.Shutdown())
	})

	return app, membersdk.NewClient(srv.URL)
}

func TestApplicationEndToEnd(t *testing.T) {
	app, client := newTestApp(t)
	ctx := context.Background()

	health, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)

	body := []byte(`{"id":9001,"email":"member@example.com","line_items":[{"sku":"NPFA-MEMBERSHIP-30D"}]}`)
	ack, err := client.PostOrderWebhook(ctx, app.cfg.ShopifyDomain, app.cfg.ShopifyWebhookSecret, body)
	require.NoError(t, err)
	require.Equal(t, "accepted", ack.Outcome)

	// Activation and the email run on the worker pool
	var link string
	require.Eventually(t, func() bool {
		msg, ok := app.outbox.Latest("member@example.com")
		link = msg.ActionURL
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	_, secret, ok := strings.Cut(link, "?token=")
	require.True(t, ok)

	dest, err := client.VerifyMagicLink(ctx, secret)
	require.NoError(t, err)
	require.Equal(t, app.cfg.PublicDashboardURL, dest)

	me, err := client.Me(ctx)
	require.NoError(t, err)
	require.True(t, me.Authenticated)
	require.True(t, me.Entitled)
	require.Equal(t, "member@example.com", me.Email)
}

func TestApplicationRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{StoreDriver: "mysql", SessionBackend: SessionsDB, MailDriver: mail.DriverLog, Env: EnvDev})
	require.Error(t, err)
	require.Contains(t, err.Error(), "STORE_DRIVER")
}
