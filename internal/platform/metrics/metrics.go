package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the tenant gate.
type Metrics struct {
	// Session store
	SwitchOutcomes  *prometheus.CounterVec
	RefreshFailures prometheus.Counter

	// Access denials
	DenialsEmitted   *prometheus.CounterVec
	DenialsPresented *prometheus.CounterVec

	// Outbox relay
	RelayPublished prometheus.Counter
	RelayFailures  prometheus.Counter

	// HTTP surface
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance registered on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		SwitchOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantgate_switch_outcomes_total",
				Help: "Tenant switch attempts by settled outcome",
			},
			[]string{"outcome"},
		),
		RefreshFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tenantgate_tenant_refresh_failures_total",
				Help: "Failed available-tenant refreshes",
			},
		),
		DenialsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantgate_denials_emitted_total",
				Help: "Access denials published on the registry",
			},
			[]string{"source"},
		),
		DenialsPresented: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantgate_denials_presented_total",
				Help: "Access denials shown to the user",
			},
			[]string{"source"},
		),
		RelayPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tenantgate_outbox_published_total",
				Help: "Outbox messages published to the broker",
			},
		),
		RelayFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tenantgate_outbox_publish_failures_total",
				Help: "Outbox messages that failed to publish",
			},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenantgate_http_request_duration_seconds",
				Help:    "HTTP request duration by route pattern and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
	}
}

// NewRegistry creates a dedicated registry with the tenant gate metrics.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	return reg, NewMetrics(reg)
}

// HandlerFor returns the scrape handler for a specific registry.
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) SwitchOutcome(outcome string) {
	m.SwitchOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RefreshFailed() {
	m.RefreshFailures.Inc()
}

func (m *Metrics) DenialEmitted(source string) {
	m.DenialsEmitted.WithLabelValues(source).Inc()
}

func (m *Metrics) DenialPresented(source string) {
	m.DenialsPresented.WithLabelValues(source).Inc()
}

func (m *Metrics) OutboxPublished() {
	m.RelayPublished.Inc()
}

func (m *Metrics) OutboxFailed() {
	m.RelayFailures.Inc()
}

// ObserveRequest records one HTTP request against its route pattern.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
