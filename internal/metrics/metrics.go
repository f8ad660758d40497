// Package metrics holds the prometheus collectors of the order desk.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeBusy    = "busy"
	// OutcomeInvalid marks a submission stopped by draft validation.
	OutcomeInvalid = "invalid"
)

// Metrics holds all order desk metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LookupPagesTotal    *prometheus.CounterVec
	LoyaltyResolutions  *prometheus.CounterVec
	SubmissionsTotal    *prometheus.CounterVec
	SubmissionDuration  *prometheus.HistogramVec
	SessionsActive      prometheus.Gauge
	JournalWriteFailure prometheus.Counter
}

// New creates a Metrics instance with its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "orderdesk"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
	m.LookupPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_pages_total",
			Help:      "Lookup pages fetched from the remote API",
		},
		[]string{"kind", "outcome"},
	)
	m.LoyaltyResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_resolutions_total",
			Help:      "Loyalty card resolutions by outcome",
		},
		[]string{"outcome"},
	)
	m.SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Order submissions by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)
	m.SubmissionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Remote round trip of order submissions",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)
	m.SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Operator sessions currently open",
		},
	)
	m.JournalWriteFailure = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_write_failures_total",
			Help:      "Submission journal writes that failed",
		},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LookupPagesTotal,
		m.LoyaltyResolutions,
		m.SubmissionsTotal,
		m.SubmissionDuration,
		m.SessionsActive,
		m.JournalWriteFailure,
	)
	return m
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLookupPage records one page fetch of a lookup kind.
func (m *Metrics) RecordLookupPage(kind string, err error) {
	if m == nil {
		return
	}
	m.LookupPagesTotal.WithLabelValues(kind, outcome(err)).Inc()
}

// RecordLoyalty records a loyalty resolution outcome (found, none, lookup_failed, stale).
func (m *Metrics) RecordLoyalty(outcome string) {
	if m == nil {
		return
	}
	m.LoyaltyResolutions.WithLabelValues(outcome).Inc()
}

// RecordSubmission records a submission attempt.
func (m *Metrics) RecordSubmission(mode, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(mode, outcome).Inc()
	if duration > 0 {
		m.SubmissionDuration.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

// SessionOpened increments the live session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

// SessionClosed decrements the live session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// RecordJournalFailure counts a failed journal write.
func (m *Metrics) RecordJournalFailure() {
	if m == nil {
		return
	}
	m.JournalWriteFailure.Inc()
}

// Middleware records every request handled by a gin engine. Routes are
// labelled by their pattern so session ids do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
