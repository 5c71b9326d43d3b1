package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rapport"

// metrics lives on its own registry so several servers can coexist in one
// process, as they do in tests.
type metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	analyses     *prometheus.CounterVec
	analysisTime prometheus.Histogram
	people       prometheus.Histogram
	saved        prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Completed analyses by report status",
			},
			[]string{"status"},
		),
		analysisTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time spent in one analysis",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		people: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_people",
				Help:      "People in each analyzed network",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
		saved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_saved_total",
				Help:      "Reports written to the archive",
			},
		),
	}
	m.registry.MustRegister(m.requests, m.duration, m.analyses, m.analysisTime, m.people, m.saved)
	return m
}

// instrument records every request under its route pattern, not its raw path,
// so report ids do not explode label cardinality.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *metrics) observeAnalysis(status string, people int, took time.Duration) {
	m.analyses.WithLabelValues(status).Inc()
	m.analysisTime.Observe(took.Seconds())
	m.people.Observe(float64(people))
}
