package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics набор счётчиков сервиса на собственном реестре.
// Все методы безопасны для nil-получателя, чтобы тесты могли обходиться без метрик.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	shortenOutcomes  *prometheus.CounterVec
	aliasCollisions  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.httpRequests = m.registerCounter("http_requests_total", "Inbound HTTP requests", []string{"method", "path", "code"})
	m.httpDuration = m.registerHistogram("http_request_duration_seconds", "Inbound HTTP request latency", []string{"method", "path"}, prometheus.DefBuckets)
	m.upstreamRequests = m.registerCounter("upstream_requests_total", "Calls to the ulvis API", []string{"endpoint", "outcome"})
	m.upstreamDuration = m.registerHistogram("upstream_request_duration_seconds", "Latency of calls to the ulvis API", []string{"endpoint"}, []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30})
	m.shortenOutcomes = m.registerCounter("shorten_outcomes_total", "Results of shorten operations by kind", []string{"outcome"})

	m.aliasCollisions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alias_collisions_total",
		Help: "Aliases rejected by ulvis as already taken",
	})
	m.registry.MustRegister(m.aliasCollisions)

	return m
}

func (m *Metrics) registerCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)

	m.registry.MustRegister(counter)
	return counter
}

func (m *Metrics) registerHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: buckets,
	}, labels)

	m.registry.MustRegister(histogram)
	return histogram
}

// Handler отдаёт метрики в текстовом формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, path string, code int, latency time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(latency.Seconds())
}

func (m *Metrics) ObserveUpstream(endpoint, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(latency.Seconds())
}

func (m *Metrics) IncShortenOutcome(outcome string) {
	if m == nil {
		return
	}
	m.shortenOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCollision() {
	if m == nil {
		return
	}
	m.aliasCollisions.Inc()
}
