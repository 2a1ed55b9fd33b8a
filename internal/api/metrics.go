package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BTreeMap/CrisisSense/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "crisissense"

// Metrics holds the Prometheus collectors of one server, on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RiskScores      *prometheus.HistogramVec
	Classifications *prometheus.CounterVec
}

// NewMetrics creates and registers the server's collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "status_code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		RiskScores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "risk_score",
			Help:      "Distribution of computed risk scores",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}, []string{"scorer"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "content_classifications_total",
			Help:      "Crisis content classifications by urgency level",
		}, []string{"urgency"}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.RiskScores, m.Classifications)
	return m
}

// Handler returns an HTTP handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one served request.
func (m *Metrics) RecordRequest(route string, statusCode int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveScore records a risk score produced by the named scorer.
func (m *Metrics) ObserveScore(scorer string, score float64) {
	m.RiskScores.WithLabelValues(scorer).Observe(score)
}

// RecordClassification counts a content classification.
func (m *Metrics) RecordClassification(level models.UrgencyLevel) {
	m.Classifications.WithLabelValues(string(level)).Inc()
}
