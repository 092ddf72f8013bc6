// Package metrics exposes Prometheus instruments for venue traffic, refresh
// cycles and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crossarb"

// Registry owns every crossarb collector on a private prometheus.Registry.
type Registry struct {
	reg *prometheus.Registry

	VenueRequests        *prometheus.CounterVec
	VenueRequestDuration *prometheus.HistogramVec
	Refreshes            *prometheus.CounterVec
	RefreshDuration      prometheus.Histogram
	Opportunities        prometheus.Gauge
	LastRefresh          prometheus.Gauge
	HTTPRequests         *prometheus.CounterVec
}

// New creates a Registry with Go runtime and process collectors included.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		VenueRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "venue_requests_total",
			Help:      "Venue API requests by outcome.",
		}, []string{"venue", "outcome"}),
		VenueRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "venue_request_duration_seconds",
			Help:      "Venue API request latency, including rate-limit waits.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"venue"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of refresh cycles.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		Opportunities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "opportunities",
			Help:      "Opportunities in the current snapshot.",
		}),
		LastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.VenueRequests, r.VenueRequestDuration,
		r.Refreshes, r.RefreshDuration, r.Opportunities, r.LastRefresh,
		r.HTTPRequests,
	)
	return r
}

// ObserveRequest records one venue request.
func (r *Registry) ObserveRequest(venue, outcome string, elapsed time.Duration) {
	r.VenueRequests.WithLabelValues(venue, outcome).Inc()
	r.VenueRequestDuration.WithLabelValues(venue).Observe(elapsed.Seconds())
}

// ObserveRefresh records one refresh cycle. Only successful cycles move the
// opportunity gauge and the last-refresh timestamp.
func (r *Registry) ObserveRefresh(outcome string, elapsed time.Duration, opportunities int) {
	r.Refreshes.WithLabelValues(outcome).Inc()
	r.RefreshDuration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		r.Opportunities.Set(float64(opportunities))
		r.LastRefresh.SetToCurrentTime()
	}
}

// ObserveHTTP records one served API request.
func (r *Registry) ObserveHTTP(method, route string, status int) {
	r.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
