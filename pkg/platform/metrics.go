package platform

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cloudecon"

// Outcome labels shared by the lookup and fetch counters.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	PricingLookups     *prometheus.CounterVec
	PricingDuration    *prometheus.HistogramVec
	MetricFetches      *prometheus.CounterVec
	MetricFetchLatency *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		PricingLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pricing_lookups_total",
			Help:      "Pricing catalog lookups by service code and outcome.",
		}, []string{"service_code", "outcome"}),
		PricingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pricing_lookup_duration_seconds",
			Help:      "Pricing catalog lookup latency by service code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service_code"}),
		MetricFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "metric_fetches_total",
			Help:      "CloudWatch metric fetches by metric name and outcome.",
		}, []string{"metric", "outcome"}),
		MetricFetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "metric_fetch_duration_seconds",
			Help:      "CloudWatch metric fetch latency by metric name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"metric"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.HTTPRequests, m.HTTPDuration,
			m.PricingLookups, m.PricingDuration,
			m.MetricFetches, m.MetricFetchLatency,
		)
	}
	return m
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObservePricingLookup records one catalog lookup.
func (m *Metrics) ObservePricingLookup(serviceCode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PricingLookups.WithLabelValues(serviceCode, outcome).Inc()
	m.PricingDuration.WithLabelValues(serviceCode).Observe(elapsed.Seconds())
}

// ObserveMetricFetch records one telemetry fetch.
func (m *Metrics) ObserveMetricFetch(metric, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.MetricFetches.WithLabelValues(metric, outcome).Inc()
	m.MetricFetchLatency.WithLabelValues(metric).Observe(elapsed.Seconds())
}
