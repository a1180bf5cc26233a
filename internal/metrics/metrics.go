// Package metrics exposes the Prometheus instruments for the console:
// inbound request counts/latency and per-operation backend round trips.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec
}

// New registers and returns the console's metric set.
func New(service string) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comercio",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled by the console.",
	}, []string{"method", "path", "status"})

	requestLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "comercio",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "Console HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "path"})

	backendRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comercio",
		Subsystem: service,
		Name:      "backend_requests_total",
		Help:      "Total number of commerce backend round trips.",
	}, []string{"operation", "outcome"})

	backendLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "comercio",
		Subsystem: service,
		Name:      "backend_request_duration_ms",
		Help:      "Commerce backend round trip latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"operation"})

	prometheus.MustRegister(requests, requestLatency, backendRequests, backendLatency)
	return &Metrics{
		Requests:        requests,
		RequestLatency:  requestLatency,
		BackendRequests: backendRequests,
		BackendLatency:  backendLatency,
	}
}

// ObserveRequest records one handled console request.
func (m *Metrics) ObserveRequest(method, path string, status int, start time.Time) {
	m.Requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestLatency.WithLabelValues(method, path).Observe(float64(time.Since(start).Milliseconds()))
}

// ObserveBackend records one backend round trip.
func (m *Metrics) ObserveBackend(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.BackendRequests.WithLabelValues(operation, outcome).Inc()
	m.BackendLatency.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
}

// Handler serves the scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
