package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"

	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	SessionsDB    = "db"
	SessionsRedis = "redis"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)

	StoreDriver  string // sqlite or postgres (default: sqlite)
	DatabaseFile string // SQLite file (default: ./npfa.db)
	DatabaseURL  string // Postgres DSN, required when StoreDriver=postgres

	SessionBackend string // db or redis (default: db)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	SessionSecret string        // HS256 key for the session cookie, at least 32 bytes
	SessionTTL    time.Duration // Session lifetime (default: 24h)

	ShopifyDomain        string // Expected X-Shopify-Shop-Domain
	ShopifyWebhookSecret string // HMAC key for webhook signatures
	MembershipSKU        string // The only SKU that activates a membership
	MembershipTag        string // Optional advisory order tag

	PublicDashboardURL string // Redirect target after a successful magic link
	PublicBaseURL      string // Base of the login link; derived from PublicDashboardURL when empty

	MailDriver         string // log, mailgun or amqp (default: log)
	MailFrom           string
	MailgunDomain      string
	MailgunAPIKey      string
	RabbitMQURL        string
	RabbitMQEmailQueue string

	AdminPasswordHash string // Argon2id PHC string; admin routes are disabled when empty
	AdminTOTPSecret   string // Optional base32 TOTP secret
	PepperFile        string // Pepper mixed into the admin password hash (default: ./pepper)

	WorkerCount     int // Background executor goroutines (default: 4)
	WorkerQueueSize int // Background executor queue (default: 256)
}

func LoadConfig() Config {
	cfg := Config{
		Env:                  getEnvOrDefault("ENV", EnvDev),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		StoreDriver:  getEnvOrDefault("STORE_DRIVER", StoreSQLite),
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "npfa.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		SessionBackend: getEnvOrDefault("SESSION_BACKEND", SessionsDB),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("REDIS_DB", 0),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("SESSION_TTL", 24*time.Hour),

		ShopifyDomain:        os.Getenv("SHOPIFY_DOMAIN"),
		ShopifyWebhookSecret: os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
		MembershipSKU:        os.Getenv("MEMBERSHIP_SKU"),
		MembershipTag:        os.Getenv("MEMBERSHIP_TAG"),

		PublicDashboardURL: getEnvOrDefault("PUBLIC_DASHBOARD_URL", "http://localhost:3000/dashboard"),
		PublicBaseURL:      os.Getenv("PUBLIC_BASE_URL"),

		MailDriver:         getEnvOrDefault("MAIL_DRIVER", mail.DriverLog),
		MailFrom:           getEnvOrDefault("MAIL_FROM", "NeverPayForAds <no-reply@neverpayforads.com>"),
		MailgunDomain:      os.Getenv("MAILGUN_DOMAIN"),
		MailgunAPIKey:      os.Getenv("MAILGUN_API_KEY"),
		RabbitMQURL:        os.Getenv("RABBITMQ_URL"),
		RabbitMQEmailQueue: getEnvOrDefault("RABBITMQ_EMAIL_QUEUE", mail.DefaultQueue),

		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminTOTPSecret:   os.Getenv("ADMIN_TOTP_SECRET"),
		PepperFile:        getEnvOrDefault("PEPPER_FILE", "pepper"),

		WorkerCount:     getEnvIntOrDefault("WORKER_COUNT", 4),
		WorkerQueueSize: getEnvIntOrDefault("WORKER_QUEUE_SIZE", 256),
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = deriveBaseURL(cfg.PublicDashboardURL)
	}

	return cfg
}

// IsDev reports whether dev-only behaviour (plain HTTP cookies, the outbox
// endpoint) is allowed.
func (c Config) IsDev() bool { return c.Env == EnvDev }

// Validate rejects configurations the service cannot run with. Production
// additionally requires every webhook and session setting.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.SessionBackend {
	case SessionsDB, SessionsRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}

	switch c.MailDriver {
	case mail.DriverLog:
		if !c.IsDev() {
			errs = append(errs, errors.New("MAIL_DRIVER=log is only allowed in dev"))
		}
	case mail.DriverMailgun:
		if c.MailgunDomain == "" || c.MailgunAPIKey == "" {
			errs = append(errs, errors.New("MAILGUN_DOMAIN and MAILGUN_API_KEY are required for MAIL_DRIVER=mailgun"))
		}
	case mail.DriverAMQP:
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required for MAIL_DRIVER=amqp"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver))
	}

	if c.SessionSecret != "" && len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}

	if c.Env == EnvProd {
		for name, v := range map[string]string{
			"SHOPIFY_DOMAIN":         c.ShopifyDomain,
			"SHOPIFY_WEBHOOK_SECRET": c.ShopifyWebhookSecret,
			"MEMBERSHIP_SKU":         c.MembershipSKU,
			"SESSION_SECRET":         c.SessionSecret,
		} {
			if v == "" {
				errs = append(errs, fmt.Errorf("%s is required in prod", name))
			}
		}
	}

	return errors.Join(errs...)
}

// deriveBaseURL strips a trailing /dashboard from the dashboard URL.
func deriveBaseURL(dashboard string) string {
	base := strings.TrimRight(dashboard, "/")
	return strings.TrimSuffix(base, "/dashboard")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
