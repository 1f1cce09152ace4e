package app

import (
	"testing"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"ENV", "PORT", "STORE_DRIVER", "SESSION_BACKEND", "MAIL_DRIVER", "SESSION_TTL", "PUBLIC_DASHBOARD_URL", "PUBLIC_BASE_URL"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	require.Equal(t, EnvDev, cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, StoreSQLite, cfg.StoreDriver)
	require.Equal(t, SessionsDB, cfg.SessionBackend)
	require.Equal(t, mail.DriverLog, cfg.MailDriver)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, mail.DefaultQueue, cfg.RabbitMQEmailQueue)
	require.Equal(t, "http://localhost:3000", cfg.PublicBaseURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "90")
	t.Setenv("HOUSEKEEPING_INTERVAL", "15m")
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("PUBLIC_DASHBOARD_URL", "https://neverpayforads.com/dashboard/")
	t.Setenv("PUBLIC_BASE_URL", "")

	cfg := LoadConfig()
	require.Equal(t, EnvProd, cfg.Env)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 90*time.Minute, cfg.SessionTTL)
	require.Equal(t, 15*time.Minute, cfg.HousekeepingInterval)
	require.Equal(t, 4, cfg.WorkerCount)
	require.Equal(t, "https://neverpayforads.com", cfg.PublicBaseURL)
}

func TestExplicitBaseURLWins(t *testing.T) {
	t.Setenv("PUBLIC_DASHBOARD_URL", "https://app.example.com/dashboard")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.com")

	require.Equal(t, "https://api.example.com", LoadConfig().PublicBaseURL)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Env:                  EnvProd,
		StoreDriver:          StorePostgres,
		DatabaseURL:          "postgres://npfa@db/npfa",
		SessionBackend:       SessionsRedis,
		SessionSecret:        "0123456789abcdef0123456789abcdef",
		ShopifyDomain:        "npfa.myshopify.com",
		ShopifyWebhookSecret: "shpss_x",
		MembershipSKU:        "NPFA-MEMBERSHIP-30D",
		MailDriver:           mail.DriverMailgun,
		MailgunDomain:        "mg.example.com",
		MailgunAPIKey:        "key",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"postgres without url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"unknown store", func(c *Config) { c.StoreDriver = "mysql" }, "STORE_DRIVER"},
		{"unknown sessions", func(c *Config) { c.SessionBackend = "memcached" }, "SESSION_BACKEND"},
		{"log mail in prod", func(c *Config) { c.MailDriver = mail.DriverLog }, "MAIL_DRIVER=log"},
		{"mailgun without key", func(c *Config) { c.MailgunAPIKey = "" }, "MAILGUN_API_KEY"},
		{"amqp without url", func(c *Config) { c.MailDriver = mail.DriverAMQP }, "RABBITMQ_URL"},
		{"short session secret", func(c *Config) { c.SessionSecret = "short" }, "at least 32 bytes"},
		{"missing webhook secret", func(c *Config) { c.ShopifyWebhookSecret = "" }, "SHOPIFY_WEBHOOK_SECRET"},
		{"missing sku", func(c *Config) { c.MembershipSKU = "" }, "MEMBERSHIP_SKU"},
		{"missing domain", func(c *Config) { c.ShopifyDomain = "" }, "SHOPIFY_DOMAIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDeriveBaseURL(t *testing.T) {
	require.Equal(t, "https://x.com", deriveBaseURL("https://x.com/dashboard"))
	require.Equal(t, "https://x.com", deriveBaseURL("https://x.com/dashboard/"))
	require.Equal(t, "https://x.com/app", deriveBaseURL("https://x.com/app"))
}
