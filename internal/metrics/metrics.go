package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "socialgraph"

// Collector holds the Prometheus metrics of one process. Each Collector owns
// its registry, so tests can build as many as they like. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ProtocolRuns         *prometheus.CounterVec
	ProtocolStepFailures *prometheus.CounterVec

	CacheLookups *prometheus.CounterVec

	ReconcileRepairs *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ProtocolRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_runs_total",
			Help:      "Multi-step mutation runs by outcome",
		}, []string{"protocol", "outcome"}),
		ProtocolStepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_step_failures_total",
			Help:      "Failed protocol steps",
		}, []string{"protocol", "step"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Entity cache lookups by result",
		}, []string{"entity", "result"}),
		ReconcileRepairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_repairs_total",
			Help:      "References repaired by the reconciler",
		}, []string{"kind"}),
	}
	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ProtocolRuns,
		c.ProtocolStepFailures,
		c.CacheLookups,
		c.ReconcileRepairs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry, mostly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) ProtocolRun(protocol, outcome string) {
	if c == nil {
		return
	}
	c.ProtocolRuns.WithLabelValues(protocol, outcome).Inc()
}

func (c *Collector) StepFailure(protocol, step string) {
	if c == nil {
		return
	}
	c.ProtocolStepFailures.WithLabelValues(protocol, step).Inc()
}

// CacheLookup records n lookups of entity with the given result.
func (c *Collector) CacheLookup(entity string, hit bool, n int) {
	if c == nil || n <= 0 {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(entity, result).Add(float64(n))
}

func (c *Collector) Repaired(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.ReconcileRepairs.WithLabelValues(kind).Add(float64(n))
}
