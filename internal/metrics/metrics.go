// Package metrics exposes prometheus collectors for the pipeline and the
// HTTP facade. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	fallbacksTotal  *prometheus.CounterVec
	pagesTotal      *prometheus.CounterVec
	cacheHitsTotal  prometheus.Counter
	cacheMissTotal  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readease_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "readease_http_request_duration_seconds",
				Help: "Duration of HTTP requests",
			},
			[]string{"method", "endpoint"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "readease_stage_duration_seconds",
				Help:    "Duration of pipeline stages",
				Buckets: prometheus.ExponentialBuckets(0.005, 3, 9),
			},
			[]string{"stage"},
		),
		fallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readease_fallbacks_total",
				Help: "Remote stages replaced by a local fallback",
			},
			[]string{"stage"},
		),
		pagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readease_extracted_units_total",
				Help: "Pages and images extracted, by document kind and method",
			},
			[]string{"kind", "method"},
		),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readease_llm_cache_hits_total",
			Help: "Total number of model cache hits",
		}),
		cacheMissTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readease_llm_cache_misses_total",
			Help: "Total number of model cache misses",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.stageDuration,
		m.fallbacksTotal,
		m.pagesTotal,
		m.cacheHitsTotal,
		m.cacheMissTotal,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) Fallback(stage string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) Extracted(kind, method string) {
	if m == nil {
		return
	}
	m.pagesTotal.WithLabelValues(kind, method).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHitsTotal.Inc()
		return
	}
	m.cacheMissTotal.Inc()
}
