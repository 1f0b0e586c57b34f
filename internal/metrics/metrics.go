// Package metrics exposes Prometheus collectors for webhook ingestion.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plaidgate"

// Webhook collects webhook pipeline metrics. A nil *Webhook is valid and records nothing.
type Webhook struct {
	received       *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	keyCache       *prometheus.CounterVec
	keyFetches     *prometheus.CounterVec
	duplicates     prometheus.Counter
	rateLimited    prometheus.Counter
	handlerLatency *prometheus.HistogramVec
}

func NewWebhook(reg prometheus.Registerer) *Webhook {
	factory := promauto.With(reg)

	return &Webhook{
		received: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_total",
				Help:      "Webhooks handled by type, code and outcome status",
			},
			[]string{"webhook_type", "webhook_code", "status"},
		),
		rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_verification_failures_total",
				Help:      "Webhooks rejected by signature verification, by reason",
			},
			[]string{"reason"},
		),
		keyCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_key_cache_lookups_total",
				Help:      "Verification key lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
		keyFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_key_fetches_total",
				Help:      "Verification key fetches from the provider by status",
			},
			[]string{"status"},
		),
		duplicates: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_duplicate_deliveries_total",
				Help:      "Verified deliveries acknowledged without dispatch because they were already recorded",
			},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_rejected_total",
				Help:      "Requests rejected by the IP rate limiter",
			},
		),
		handlerLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "webhook_dispatch_duration_seconds",
				Help:      "Time spent routing a verified webhook to its handlers",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"webhook_type"},
		),
	}
}

func (m *Webhook) ObserveOutcome(webhookType, webhookCode, status string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(webhookType, webhookCode, status).Inc()
}

func (m *Webhook) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Webhook) ObserveKeyCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.keyCache.WithLabelValues(result).Inc()
}

func (m *Webhook) ObserveKeyFetch(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.keyFetches.WithLabelValues(status).Inc()
}

func (m *Webhook) ObserveDuplicate() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

func (m *Webhook) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Webhook) ObserveDispatch(webhookType string, seconds float64) {
	if m == nil {
		return
	}
	m.handlerLatency.WithLabelValues(webhookType).Observe(seconds)
}

// Handler serves the collectors registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
