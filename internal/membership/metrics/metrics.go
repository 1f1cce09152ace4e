// Package metrics exposes Prometheus counters for webhook intake, activation,
// magic links and background work.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "npfa"

// Recorder is what services and the worker pool report to.
type Recorder interface {
	RecordWebhook(outcome string)
	RecordActivation(result string)
	RecordTokenIssued()
	RecordRedemption(success bool)
	RecordEmail(err error)
	RecordTask(name string, err error, elapsed time.Duration)
	RecordHTTP(method string, status int, elapsed time.Duration)
}

// Nop discards everything. Zero-value services fall back to it.
type Nop struct{}

func (Nop) RecordWebhook(string)                    {}
func (Nop) RecordActivation(string)                 {}
func (Nop) RecordTokenIssued()                      {}
func (Nop) RecordRedemption(bool)                   {}
func (Nop) RecordEmail(error)                       {}
func (Nop) RecordTask(string, error, time.Duration) {}
func (Nop) RecordHTTP(string, int, time.Duration)   {}

type Collector struct {
	webhooks     *prometheus.CounterVec
	activations  *prometheus.CounterVec
	tokensIssued prometheus.Counter
	redemptions  *prometheus.CounterVec
	emails       *prometheus.CounterVec
	tasks        *prometheus.CounterVec
	taskLatency  *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Inbound order webhooks by outcome.",
		}, []string{"outcome"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Membership activations by result.",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_tokens_issued_total",
			Help:      "Magic-link tokens issued.",
		}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_token_redemptions_total",
			Help:      "Magic-link redemption attempts by result.",
		}, []string{"result"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Outbound email hand-offs by result.",
		}, []string{"result"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_tasks_total",
			Help:      "Background tasks by name and result.",
		}, []string{"task", "result"}),
		taskLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "background_task_duration_seconds",
			Help:      "Background task run time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		c.webhooks,
		c.activations,
		c.tokensIssued,
		c.redemptions,
		c.emails,
		c.tasks,
		c.taskLatency,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordWebhook(outcome string) {
	c.webhooks.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordActivation(result string) {
	c.activations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordTokenIssued() {
	c.tokensIssued.Inc()
}

func (c *Collector) RecordRedemption(success bool) {
	c.redemptions.WithLabelValues(resultLabel(success)).Inc()
}

func (c *Collector) RecordEmail(err error) {
	c.emails.WithLabelValues(resultLabel(err == nil)).Inc()
}

func (c *Collector) RecordTask(name string, err error, elapsed time.Duration) {
	c.tasks.WithLabelValues(name, resultLabel(err == nil)).Inc()
	c.taskLatency.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (c *Collector) RecordHTTP(method string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware counts requests and their latency.
func HTTPMiddleware(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)
			rec.RecordHTTP(r.Method, sr.status, time.Since(start))
		})
	}
}
