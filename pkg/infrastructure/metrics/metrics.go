package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "strava_ingest"

// Recorder is the pipeline's metrics surface. Components depend on this, not on Prometheus.
type Recorder interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncWebhookEvents(objectType, aspectType, outcome string)
	IncIngestOutcome(aspectType, outcome string)
	IncEnrichmentStep(step, status string)
	IncIdentityCache(hit bool)
	ObserveTaskDuration(status string, duration time.Duration)
	// TrackInFlight exposes a live in-flight task count as a gauge.
	TrackInFlight(count func() int)
	Handler() http.Handler
}

type Provider struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
	ingestOutcomes  *prometheus.CounterVec
	enrichmentSteps *prometheus.CounterVec
	identityCache   *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
}

// New returns a Prometheus-backed Recorder on its own registry, or a no-op when disabled.
func New(enabled bool) Recorder {
	if !enabled {
		return &noopMetrics{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Provider{
		registry: reg,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		webhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook events received, by classification outcome",
		}, []string{"object_type", "aspect_type", "outcome"}),

		ingestOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_outcomes_total",
			Help:      "Activity ingestion outcomes",
		}, []string{"aspect_type", "outcome"}),

		enrichmentSteps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_steps_total",
			Help:      "Enrichment sub-step results",
		}, []string{"step", "status"}),

		identityCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_cache_lookups_total",
			Help:      "Athlete identity cache lookups",
		}, []string{"result"}),

		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "background_task_duration_seconds",
			Help:      "Duration of background ingestion tasks",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"status"}),
	}
}

func (m *Provider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *Provider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Provider) IncWebhookEvents(objectType, aspectType, outcome string) {
	m.webhookEvents.WithLabelValues(objectType, aspectType, outcome).Inc()
}

func (m *Provider) IncIngestOutcome(aspectType, outcome string) {
	m.ingestOutcomes.WithLabelValues(aspectType, outcome).Inc()
}

func (m *Provider) IncEnrichmentStep(step, status string) {
	m.enrichmentSteps.WithLabelValues(step, status).Inc()
}

func (m *Provider) IncIdentityCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.identityCache.WithLabelValues(result).Inc()
}

func (m *Provider) ObserveTaskDuration(status string, duration time.Duration) {
	m.taskDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *Provider) TrackInFlight(count func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "background_tasks_in_flight",
		Help:      "Background tasks currently registered",
	}, func() float64 {
		return float64(count())
	})
}

func (m *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and custom exporters.
func (m *Provider) Gatherer() prometheus.Gatherer {
	return m.registry
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncWebhookEvents(_, _, _ string)                  {}
func (n *noopMetrics) IncIngestOutcome(_, _ string)                     {}
func (n *noopMetrics) IncEnrichmentStep(_, _ string)                    {}
func (n *noopMetrics) IncIdentityCache(_ bool)                          {}
func (n *noopMetrics) ObserveTaskDuration(_ string, _ time.Duration)    {}
func (n *noopMetrics) TrackInFlight(_ func() int)                       {}
func (n *noopMetrics) Handler() http.Handler                            { return http.NotFoundHandler() }
