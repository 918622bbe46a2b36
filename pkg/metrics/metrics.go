// Package metrics exposes the service's Prometheus collectors.
//
// Collectors are registered on the Registerer passed to New, so tests can use
// an isolated prometheus.NewRegistry. Handler serves the /metrics endpoint.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "emails"

// Metrics groups the collectors updated by the mailer, cooldown checker,
// report runner, webhook receiver and HTTP middleware.
type Metrics struct {
	EmailsSent       *prometheus.CounterVec
	SendDuration     *prometheus.HistogramVec
	CooldownErrors   *prometheus.CounterVec
	ReportRuns       *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	HTTPRequests     *prometheus.HistogramVec
	SessionCacheHits *prometheus.CounterVec
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sent_total",
			Help:      "Emails handed to the provider, by call kind and result",
		}, []string{"kind", "result"}),
		SendDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Duration of provider send calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}, []string{"kind"}),
		CooldownErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_check_errors_total",
			Help:      "Cooldown lookups that failed and were allowed through",
		}, []string{"scope"}),
		ReportRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_report_runs_total",
			Help:      "Usage report runs by frequency and final state",
		}, []string{"frequency", "state"}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Provider webhook events by type and whether a log row matched",
		}, []string{"type", "matched"}),
		HTTPRequests: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"method", "status"}),
		SessionCacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_lookups_total",
			Help:      "Session lookups by source",
		}, []string{"source"}),
	}
}

// ObserveSend implements mailer.Observer.
func (m *Metrics) ObserveSend(kind string, n int, err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.EmailsSent.WithLabelValues(kind, result).Add(float64(n))
	m.SendDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// CooldownError counts a failed cooldown lookup. scope is "user" or "system".
func (m *Metrics) CooldownError(scope string) {
	m.CooldownErrors.WithLabelValues(scope).Inc()
}

// ReportRun counts a finished usage report run.
func (m *Metrics) ReportRun(frequency, state string) {
	m.ReportRuns.WithLabelValues(frequency, state).Inc()
}

// WebhookEvent counts a received provider event.
func (m *Metrics) WebhookEvent(eventType string, matched bool) {
	m.WebhookEvents.WithLabelValues(eventType, strconv.FormatBool(matched)).Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// SessionLookup counts a session resolution. source is "cache" or "auth".
func (m *Metrics) SessionLookup(source string) {
	m.SessionCacheHits.WithLabelValues(source).Inc()
}

// Handler serves the collectors of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
