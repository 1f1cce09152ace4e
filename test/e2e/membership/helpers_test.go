package membership_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/pkg/cryptox"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for membership service end-to-end
 * tests. This includes container setup, webhook fixtures and assertions.
 */

const (
	testImageName = "npfa-membership-test:latest"

	shopDomain    = "npfa-e2e.myshopify.com"
	webhookSecret = "shpss_e2e_webhook_secret"
	membershipSKU = "NPFA-MEMBERSHIP-30D"
	dashboardURL  = "http://localhost:3000/dashboard"

	adminUsername = "ops"
	adminPassword = "correct horse battery staple"
	adminTOTP     = "JBSWY3DPEHPK3PXP"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping membership e2e tests in short mode")
		os.Exit(0)
	}
	if err := exec.Command("docker", "info").Run(); err != nil {
		fmt.Fprintln(os.Stdout, "docker unavailable, skipping membership e2e tests")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Membership Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Membership Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/membership/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

type containerOptions struct {
	defaultRateLimits bool
}

type containerOption func(*containerOptions)

// withDefaultRateLimits keeps production rate limits. Only the rate limit
// tests want this; everything else makes too many rapid requests.
func withDefaultRateLimits() containerOption {
	return func(o *containerOptions) { o.defaultRateLimits = true }
}

// setupMembershipContainer starts the service in a container and returns its
// base URL. The pepper is generated here so the admin password hash can be
// computed before the service starts.
func setupMembershipContainer(t *testing.T, opts ...containerOption) (string, func()) {
	t.Helper()
	ctx := context.Background()

	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}

	pepperPath := t.TempDir() + "/pepper"
	pepper, err := cryptox.LoadOrCreatePepper(pepperPath)
	require.NoError(t, err)
	adminHash, err := cryptox.PasswordHasher{Pepper: pepper}.Hash(adminPassword)
	require.NoError(t, err)

	env := map[string]string{
		"ENV":                    "dev",
		"LOG_LEVEL":              "info",
		"LOG_FORMAT":             "json",
		"DATABASE_FILE":          "/data/npfa.db",
		"PEPPER_FILE":            "/data/pepper",
		"SHOPIFY_DOMAIN":         shopDomain,
		"SHOPIFY_WEBHOOK_SECRET": webhookSecret,
		"MEMBERSHIP_SKU":         membershipSKU,
		"PUBLIC_DASHBOARD_URL":   dashboardURL,
		"PUBLIC_BASE_URL":        "http://localhost:8080",
		"SESSION_SECRET":         "e2e-session-secret-that-is-long-enough",
		"ADMIN_PASSWORD_HASH":    adminHash,
		"ADMIN_TOTP_SECRET":      adminTOTP,
		"MAIL_DRIVER":            "log",
	}
	if !o.defaultRateLimits {
		for _, k := range []string{"STRICT", "MODERATE", "LENIENT"} {
			env["RATELIMIT_"+k+"_REQUESTS"] = "1000"
			env["RATELIMIT_"+k+"_BURST"] = "1000"
		}
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		Files: []testcontainers.ContainerFile{{
			HostFilePath:      pepperPath,
			ContainerFilePath: "/data/pepper",
			FileMode:          0o644,
		}},
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// orderJSON builds an orders/paid payload.
func orderJSON(orderID int64, email, sku string) []byte {
	return fmt.Appendf(nil,
		`{"id":%d,"email":%q,"customer":{"id":4242,"email":%q},"tags":"","line_items":[{"sku":%q,"quantity":1}]}`,
		orderID, email, email, sku)
}

// postPaidOrder sends a correctly signed webhook and requires it accepted.
func postPaidOrder(t *testing.T, client *membersdk.Client, orderID int64, email string) {
	t.Helper()
	ack, err := client.PostOrderWebhook(t.Context(), shopDomain, webhookSecret, orderJSON(orderID, email, membershipSKU))
	require.NoError(t, err)
	require.True(t, ack.Received)
	require.Equal(t, "accepted", ack.Outcome)
}

// awaitLoginSecret polls the dev outbox until a login link for email newer
// than after shows up, and returns its token.
func awaitLoginSecret(t *testing.T, client *membersdk.Client, email string, after time.Time) string {
	t.Helper()

	var secret string
	require.Eventually(t, func() bool {
		out, err := client.GetOutbox(t.Context())
		if err != nil {
			return false
		}
		for _, m := range out.Messages {
			if m.To != email || m.CreatedAt.Before(after) {
				continue
			}
			u, err := url.Parse(m.ActionURL)
			if err != nil {
				return false
			}
			secret = u.Query().Get("token")
			return secret != ""
		}
		return false
	}, 10*time.Second, 100*time.Millisecond, "no login email for %s", email)

	return secret
}

// login redeems a fresh link for email into client's cookie jar.
func login(t *testing.T, client *membersdk.Client, email string) {
	t.Helper()
	since := time.Now().Add(-time.Second)
	require.NoError(t, client.SendMagicLink(t.Context(), email))

	dest, err := client.VerifyMagicLink(t.Context(), awaitLoginSecret(t, client, email, since))
	require.NoError(t, err)
	require.Equal(t, dashboardURL, dest)
}

// adminClient returns a client carrying admin credentials and a current
// one-time code.
func adminClient(t *testing.T, baseURL string) *membersdk.Client {
	t.Helper()
	code, err := totp.GenerateCode(adminTOTP, time.Now())
	require.NoError(t, err)
	return membersdk.NewClient(baseURL).WithAdmin(adminUsername, adminPassword, code)
}

// assertAPIError checks err is an API error with the given status and code.
func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *membersdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %T: %v", err, err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *membersdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// uniqueEmail keeps tests sharing nothing even against one container.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
