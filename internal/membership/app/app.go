package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/GabrielAlexander97/neverpayforads/internal/membership/http"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/metrics"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/service"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store/drivers/postgres"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store/drivers/redis"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store/drivers/sqlite"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/worker"
	"github.com/GabrielAlexander97/neverpayforads/pkg/cryptox"
	"github.com/GabrielAlexander97/neverpayforads/pkg/jwtx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	sessionIssuer = "npfa"
	sessionKeyID  = "session-1"
)

// Application encapsulates the membership service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	sessions *redis.SessionStore // nil unless SESSION_BACKEND=redis
	mailer   mail.Mailer
	outbox   *mail.Outbox // dev only
	closers  []func() error

	pool     *worker.Pool
	registry *prometheus.Registry
	metrics  *metrics.Collector

	// Services
	tokenService        *service.TokenService
	sessionService      *service.SessionService
	activator           *service.Activator
	adminService        *service.AdminService
	webhookVerifier     *service.WebhookVerifier
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "membership-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initSessions(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initMail(); err != nil {
		app.closeAll()
		return nil, err
	}
	app.initMetrics()
	app.initWorkers()

	if err := app.initServices(); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		app.closeAll()
		return nil, err
	}

	return app, nil
}

// Handler exposes the HTTP handler, e.g. for httptest servers.
func (app *Application) Handler() http.Handler { return app.router }

// Start launches the background workers without serving HTTP.
func (app *Application) Start() {
	app.pool.Start()
	app.housekeepingService.Start()
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.Start()

	app.logger.Info("membership service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"sessions", app.cfg.SessionBackend,
		"mail", app.cfg.MailDriver,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, drains queued activations and emails,
// then closes every connection.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down membership service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Queued activations outlive the request that accepted them
	if err := app.pool.Stop(ctx); err != nil {
		app.logger.Error("background tasks did not drain", "error", err, "pending", app.pool.Pending())
	}

	app.housekeepingService.Stop()

	err := app.closeAll()

	app.logger.Info("membership service stopped")
	return err
}

func (app *Application) closeAll() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error("error closing dependency", "error", err)
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.StoreDriver {
	case StorePostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns:        10,
			MaxConnLifetime: time.Hour,
		})
	default:
		host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(host)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db.Close)

	if err := db.ApplyMigrations(); err != nil {
		app.closeAll()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initSessions(ctx context.Context) error {
	if app.cfg.SessionBackend != SessionsRedis {
		return nil
	}

	sessions, err := redis.Connect(ctx, redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.sessions = sessions
	app.closers = append(app.closers, sessions.Close)

	app.logger.Info("redis session store connected", "addr", app.cfg.RedisAddr)
	return nil
}

func (app *Application) initMail() error {
	switch app.cfg.MailDriver {
	case mail.DriverMailgun:
		mg, err := mail.NewMailgun(app.cfg.MailgunDomain, app.cfg.MailgunAPIKey, app.cfg.MailFrom)
		if err != nil {
			return fmt.Errorf("failed to configure mailgun: %w", err)
		}
		app.mailer = mg

	case mail.DriverAMQP:
		pub, err := mail.NewPublisher(app.cfg.RabbitMQURL, app.cfg.RabbitMQEmailQueue)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		app.mailer = pub
		app.closers = append(app.closers, pub.Close)

	default:
		app.outbox = mail.NewOutbox(mail.DefaultOutboxSize)
		app.mailer = app.outbox
		app.logger.Warn("mail driver is log: login links are only captured in the dev outbox")
	}
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.NewCollector(app.registry)
}

func (app *Application) initWorkers() {
	app.pool = worker.NewPool(app.cfg.WorkerCount, app.cfg.WorkerQueueSize, app.logger)
	app.pool.Observer = app.metrics.RecordTask
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	signer, err := app.sessionSigner()
	if err != nil {
		return err
	}

	app.webhookVerifier = &service.WebhookVerifier{
		Domain:     app.cfg.ShopifyDomain,
		Secret:     []byte(app.cfg.ShopifyWebhookSecret),
		Classifier: service.NewClassifier(app.cfg.MembershipSKU, app.cfg.MembershipTag),
	}

	app.tokenService = &service.TokenService{
		Store:    app.db,
		Mailer:   app.mailer,
		Executor: app.pool,
		Metrics:  app.metrics,
		BaseURL:  app.cfg.PublicBaseURL,
	}

	app.activator = &service.Activator{
		Store:   app.db,
		Tokens:  app.tokenService,
		Metrics: app.metrics,
	}

	app.sessionService = &service.SessionService{
		Store:  app.db,
		Signer: signer,
		Verify: signer,
		Issuer: sessionIssuer,
		TTL:    app.cfg.SessionTTL,
	}

	var sessions store.Sessions = app.db.Sessions()
	if app.sessions != nil {
		app.sessionService.Sessions = app.sessions
		sessions = app.sessions
	}

	app.adminService = &service.AdminService{
		Store:  app.db,
		Tokens: app.tokenService,
	}

	app.housekeepingService = service.NewHousekeepingService(
		sessions,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// sessionSigner builds the cookie signer. Without SESSION_SECRET (dev only)
// a random key is used and sessions do not survive a restart.
func (app *Application) sessionSigner() (*jwtx.HS256, error) {
	secret := app.cfg.SessionSecret
	if secret == "" {
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, err
		}
		secret = generated
		app.logger.Warn("SESSION_SECRET not set, using an ephemeral session key")
	}
	return jwtx.NewHS256(sessionIssuer, sessionKeyID, []byte(secret), nil)
}

func (app *Application) adminAuth() (*httpapi.AdminAuth, error) {
	if app.cfg.AdminPasswordHash == "" {
		app.logger.Warn("ADMIN_PASSWORD_HASH not set, admin endpoints disabled")
		return nil, nil
	}

	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	return &httpapi.AdminAuth{
		PasswordHash: app.cfg.AdminPasswordHash,
		Hasher:       cryptox.PasswordHasher{Pepper: pepper},
		TOTPSecret:   app.cfg.AdminTOTPSecret,
	}, nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	adminAuth, err := app.adminAuth()
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(BuildVersion, app.logger)

	router.WebhookVerifier = app.webhookVerifier
	router.Activator = app.activator
	router.TokenService = app.tokenService
	router.SessionService = app.sessionService
	router.AdminService = app.adminService
	router.Executor = app.pool
	router.Metrics = app.metrics
	router.Gatherer = app.registry
	router.AdminAuth = adminAuth
	router.Cookie = httpapi.CookieConfig{Secure: !app.cfg.IsDev(), TTL: app.cfg.SessionTTL}
	router.DashboardURL = app.cfg.PublicDashboardURL
	router.MembershipSKU = app.cfg.MembershipSKU
	router.Checks["database"] = app.db.Ping
	if app.sessions != nil {
		router.Checks["sessions"] = app.sessions.Ping
	}
	if app.cfg.IsDev() {
		router.Outbox = app.outbox
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
