package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"real4d-backend/internal/metrics"
)

func TestRegistry_Singleton(t *testing.T) {
	a := metrics.Registry("test")
	b := metrics.Registry("other")
	assert.Same(t, a, b)
}

func TestCounters(t *testing.T) {
	m := metrics.Registry("test")

	before := testutil.ToFloat64(m.WebhookEvents.WithLabelValues("PURCHASE_APPROVED", "ok"))
	m.Webhook("PURCHASE_APPROVED", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(m.WebhookEvents.WithLabelValues("PURCHASE_APPROVED", "ok")))

	m.ObserveSince("auth", "create_user", time.Now())
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Webhook("x", "y")
		m.Email("x", "y")
		m.Deletion("x")
		m.ObserveSince("x", "y", time.Now())
	})
}
