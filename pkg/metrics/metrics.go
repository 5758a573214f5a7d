package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector groups the platform's Prometheus metrics. A nil *Collector is
// valid and records nothing, so adapters can be built without metrics in tests.
type Collector struct {
	registry         *prometheus.Registry
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	fallbacks        *prometheus.CounterVec
	probeLatency     *prometheus.GaugeVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_requests_total",
				Help: "Outbound calls to the billing and panel platforms",
			},
			[]string{"system", "op", "outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_duration_seconds",
				Help:    "Outbound call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"system", "op"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fallback_substitutions_total",
				Help: "Reads answered from snapshot or static data instead of the live upstream",
			},
			[]string{"view", "source"},
		),
		probeLatency: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "location_probe_latency_ms",
				Help: "Latest TCP probe latency per location, -1 when unreachable",
			},
			[]string{"location"},
		),
	}
	c.registry.MustRegister(c.upstreamRequests, c.upstreamDuration, c.fallbacks, c.probeLatency)
	return c
}

func (c *Collector) ObserveUpstream(system, op, outcome string, took time.Duration) {
	if c == nil {
		return
	}
	c.upstreamRequests.WithLabelValues(system, op, outcome).Inc()
	c.upstreamDuration.WithLabelValues(system, op).Observe(took.Seconds())
}

func (c *Collector) Fallback(view, source string) {
	if c == nil {
		return
	}
	c.fallbacks.WithLabelValues(view, source).Inc()
}

func (c *Collector) ProbeLatency(location string, ms float64) {
	if c == nil {
		return
	}
	c.probeLatency.WithLabelValues(location).Set(ms)
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
