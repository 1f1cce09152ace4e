package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/metrics"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/service"
	"github.com/GabrielAlexander97/neverpayforads/pkg/httpx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/GabrielAlexander97/neverpayforads/api/membership" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// MaxWebhookBody caps inbound webhook payloads.
const MaxWebhookBody = 1 << 20

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	WebhookVerifier *service.WebhookVerifier
	Activator       *service.Activator
	TokenService    *service.TokenService
	SessionService  *service.SessionService
	AdminService    *service.AdminService

	// Executor runs activations after the webhook has been acknowledged.
	Executor service.Executor

	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer

	// AdminAuth guards /v1/admin. Nil leaves the admin routes unregistered.
	AdminAuth *AdminAuth

	// Outbox enables /v1/dev/outbox. Never set in production.
	Outbox *mail.Outbox

	Cookie        CookieConfig
	DashboardURL  string
	MembershipSKU string

	// Checks are run by /readyz, keyed by dependency name.
	Checks map[string]ReadinessCheck
}

func NewRouter(buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Metrics:      metrics.Nop{},
		Executor:     service.InlineExecutor{},
		Checks:       map[string]ReadinessCheck{},
	}
	return r
}

func (r *Router) ApplyRoutes() {
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		metrics.HTTPMiddleware(r.Metrics),
	}

	r.registerWebhooks()
	r.registerAuth()
	r.registerAdmin()
	r.registerDev()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			NeverPayForAds Membership API
//	@version		0.1.0
//	@description	Activates memberships from signed commerce webhooks and signs members in with single-use magic links.
//	@description
//	@description				Sessions are carried in the npfa_session cookie set by the magic link redirect.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.basic	AdminBasic
//	@description				Operator credentials. Send X-Admin-OTP as well when TOTP is enabled.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerWebhooks() {
	h := &WebhookHandler{
		Verifier:  r.WebhookVerifier,
		Activator: r.Activator,
		Executor:  r.Executor,
		Metrics:   r.Metrics,
	}

	// POST /webhooks/shopify/orders - the platform retries in bursts, bucketed
	// per sending shop
	r.Mux.Handle("POST /v1/webhooks/shopify/orders",
		httpx.Chain(h,
			httpx.RateLimitByIPAndHeader(httpx.PublicLimit, service.HeaderDomain),
			httpx.LimitBody(MaxWebhookBody),
		),
	)

	r.Mux.Handle("GET /v1/webhooks/shopify/test",
		httpx.Chain(WebhookConfigHandler(r.WebhookVerifier, r.MembershipSKU),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAuth() {
	h := &MagicLinkHandler{
		Tokens:       r.TokenService,
		Sessions:     r.SessionService,
		Cookie:       r.Cookie,
		DashboardURL: r.DashboardURL,
	}

	// Credential endpoints - strict rate limit by IP
	r.Mux.Handle("POST /v1/auth/magic/send",
		httpx.Chain(http.HandlerFunc(h.HandleSend),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/magic/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	me := &MeHandler{Sessions: r.SessionService, Cookie: r.Cookie}
	r.Mux.Handle("GET /v1/me",
		httpx.Chain(me,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	if r.AdminAuth == nil {
		return
	}
	h := &AdminHandler{Admin: r.AdminService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.RateLimitByIP(httpx.ModerateLimit), // before auth, limits password guessing
			r.AdminAuth.Middleware,
			httpx.RateLimitByPrincipal(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/admin/users", secured(h.HandleList))
	r.Mux.Handle("POST /v1/admin/users/{email}/extend", secured(h.HandleExtend))
	r.Mux.Handle("POST /v1/admin/users/{email}/deactivate", secured(h.HandleDeactivate))
	r.Mux.Handle("POST /v1/admin/users/{email}/resend-magic", secured(h.HandleResend))
}

func (r *Router) registerDev() {
	if r.Outbox == nil {
		return
	}
	r.Mux.Handle("GET /v1/dev/outbox",
		httpx.Chain(OutboxHandler(r.Outbox),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.Checks),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", metrics.Handler(r.Gatherer))
	}
}
