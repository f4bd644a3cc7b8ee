package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	WebhookEvents    *prometheus.CounterVec
	EmailsSent       *prometheus.CounterVec
	AccountDeletions *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
// Later calls return the first instance regardless of namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Total payment webhook events by event name and outcome.",
			}, []string{"event", "outcome"}),
			EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_sent_total",
				Help:      "Total transactional emails by template and status.",
			}, []string{"template", "status"}),
			AccountDeletions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_deletions_total",
				Help:      "Total account deletion requests by outcome.",
			}, []string{"outcome"}),
			UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Latency of calls to Supabase and the email API.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"service", "operation"}),
		}

		prometheus.MustRegister(
			metricsInstance.WebhookEvents,
			metricsInstance.EmailsSent,
			metricsInstance.AccountDeletions,
			metricsInstance.UpstreamLatency,
		)
	})
	return metricsInstance
}

// ObserveSince records the elapsed time of an upstream call.
func (m *Metrics) ObserveSince(service, operation string, start time.Time) {
	if m == nil {
		return
	}
	m.UpstreamLatency.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
}

// Webhook counts a processed webhook event.
func (m *Metrics) Webhook(event, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(event, outcome).Inc()
}

// Email counts an email dispatch attempt.
func (m *Metrics) Email(template, status string) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues(template, status).Inc()
}

// Deletion counts an account deletion attempt.
func (m *Metrics) Deletion(outcome string) {
	if m == nil {
		return
	}
	m.AccountDeletions.WithLabelValues(outcome).Inc()
}
