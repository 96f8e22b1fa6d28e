// Package metrics exposes Prometheus collectors for tool calls, upstream
// requests and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tool call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector owns a private registry so several collectors can coexist in
// one process, e.g. in tests.
type Collector struct {
	registry *prometheus.Registry

	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec

	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	sessionsBound prometheus.Gauge
	toolsLoaded   prometheus.Gauge
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		toolCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of MCP tool calls",
			},
			[]string{"tool", "outcome"},
		),
		toolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "MCP tool call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),

		upstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of requests sent to the upstream API",
			},
			[]string{"source", "method", "status"},
		),
		upstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Upstream API request duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"source", "method"},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		sessionsBound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_bound",
			Help:      "MCP sessions currently bound to a credential",
		}),
		toolsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tools_loaded",
			Help:      "Number of tools registered from API descriptions",
		}),
	}
}

// RecordToolCall counts one tool call.
func (c *Collector) RecordToolCall(tool string, success bool, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeError
	}
	c.toolCallsTotal.WithLabelValues(tool, outcome).Inc()
	c.toolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveUpstream counts one upstream request. Status 0 is reported as
// "transport_error".
func (c *Collector) ObserveUpstream(source, method string, status int, elapsed time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.upstreamRequestsTotal.WithLabelValues(source, method, label).Inc()
	c.upstreamRequestDuration.WithLabelValues(source, method).Observe(elapsed.Seconds())
}

// RecordHTTPRequest counts one request served by the HTTP server.
func (c *Collector) RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// SessionBound and SessionReleased track live credential bindings.
func (c *Collector) SessionBound()    { c.sessionsBound.Inc() }
func (c *Collector) SessionReleased() { c.sessionsBound.Dec() }

// SetToolsLoaded records the size of the tool registry.
func (c *Collector) SetToolsLoaded(n int) { c.toolsLoaded.Set(float64(n)) }

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
