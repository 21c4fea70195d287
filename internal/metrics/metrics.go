package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ngo_connect"

// Metrics owns every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	matches       *prometheus.CounterVec
	candidates    prometheus.Histogram
	notifications prometheus.Counter
	deliveries    *prometheus.CounterVec
	queueDropped  prometheus.Counter
	statusUpdates *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Match requests by category and whether any NGO qualified.",
		}, []string{"category", "result"}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_candidates",
			Help:      "Number of NGOs selected per match.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notification records synthesized and stored.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Delivery attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		queueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_queue_dropped_total",
			Help:      "Notifications not delivered because the dispatch queue was full.",
		}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_updates_total",
			Help:      "Notification status updates by target status and result.",
		}, []string{"status", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.matches,
		m.candidates,
		m.notifications,
		m.deliveries,
		m.queueDropped,
		m.statusUpdates,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry for Prometheus scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) MatchCompleted(category string, candidates int) {
	result := "matched"
	if candidates == 0 {
		result = "empty"
	}
	m.matches.WithLabelValues(category, result).Inc()
	m.candidates.Observe(float64(candidates))
}

func (m *Metrics) NotificationsCreated(n int) {
	m.notifications.Add(float64(n))
}

func (m *Metrics) DeliveryAttempt(channel, outcome string) {
	m.deliveries.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) QueueDropped() {
	m.queueDropped.Inc()
}

func (m *Metrics) StatusUpdated(status, result string) {
	m.statusUpdates.WithLabelValues(status, result).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
