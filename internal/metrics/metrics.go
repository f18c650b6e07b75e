// Package metrics exposes Prometheus collectors for the API server and the worker.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fcarena"

// HTTPMetrics tracks API requests
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics registers the request collectors with reg (default registerer when nil)
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

// ObserveRequest records one finished request
func (m *HTTPMetrics) ObserveRequest(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(seconds)
}

// BookingMetrics tracks session outcomes and remote call failures on the worker
type BookingMetrics struct {
	outcomes         *prometheus.CounterVec
	activityFailures *prometheus.CounterVec
	bookings         prometheus.Counter
}

// NewBookingMetrics registers the booking collectors with reg (default registerer when nil)
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "notices_total",
			Help:      "Outcome notices presented to customers.",
		}, []string{"status", "kind"}),
		activityFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "activity_failures_total",
			Help:      "Failed remote calls made on behalf of a form session.",
		}, []string{"activity"}),
		bookings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "persisted_total",
			Help:      "Bookings written after a verified payment.",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.outcomes, m.activityFailures, m.bookings)
	return m
}

// ObserveNotice counts a presented notice
func (m *BookingMetrics) ObserveNotice(status, kind string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(status, kind).Inc()
}

// ObserveActivityFailure counts a failed activity
func (m *BookingMetrics) ObserveActivityFailure(activity string) {
	if m == nil {
		return
	}
	m.activityFailures.WithLabelValues(activity).Inc()
}

// ObserveBooking counts a persisted booking
func (m *BookingMetrics) ObserveBooking() {
	if m == nil {
		return
	}
	m.bookings.Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
