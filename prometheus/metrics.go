package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Registration counters
	RegistrationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogar_registrations_total",
			Help: "Total number of registration transitions",
		},
		[]string{"outcome"}, // outcome can be "created", "completed", "replayed", "expired"
	)

	// Coupon redemption counters
	CouponRedemptionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogar_coupon_redemptions_total",
			Help: "Total number of coupon redemption attempts",
		},
		[]string{"outcome"}, // outcome can be "redeemed", "rejected"
	)

	// Idempotency replay counter
	IdempotencyReplayCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hogar_idempotency_replays_total",
			Help: "Total number of requests answered from a stored idempotent result",
		},
	)

	// Retry queue transition counter
	RetryQueueCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogar_retry_queue_transitions_total",
			Help: "Total number of failed-operation queue transitions",
		},
		[]string{"transition"}, // transition can be "enqueued", "claimed", "completed", "requeued", "dead"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogar_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Store error counter
	StoreErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogar_store_errors_total",
			Help: "Total number of store errors",
		},
		[]string{"type"}, // type can be "validation", "not_found", "conflict", "expired", "transient", "fatal"
	)

	// Quality issue counter
	QualityIssueCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogar_quality_issues_total",
			Help: "Total number of reported quality issues",
		},
		[]string{"issue_type", "agent"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hogar_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hogar_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	// Pending registrations
	PendingRegistrationsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hogar_pending_registrations",
			Help: "Number of currently pending registrations",
		},
	)

	// Dead-letter queue depth
	DeadOperationsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hogar_dead_operations",
			Help: "Number of operations parked in the dead-letter queue",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hogar_info",
			Help: "Information about the data core service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(RegistrationCounter)
	prometheus.MustRegister(CouponRedemptionCounter)
	prometheus.MustRegister(IdempotencyReplayCounter)
	prometheus.MustRegister(RetryQueueCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(StoreErrorCounter)
	prometheus.MustRegister(QualityIssueCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(PendingRegistrationsGauge)
	prometheus.MustRegister(DeadOperationsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordRegistration records a registration transition by outcome
func RecordRegistration(outcome string) {
	RegistrationCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordCouponRedemption records a coupon redemption attempt by outcome
func RecordCouponRedemption(outcome string) {
	CouponRedemptionCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordIdempotencyReplay records a request answered from a stored result
func RecordIdempotencyReplay() {
	IdempotencyReplayCounter.Inc()
}

// RecordRetryTransition records a failed-operation queue transition
func RecordRetryTransition(transition string) {
	RetryQueueCounter.With(prometheus.Labels{"transition": transition}).Inc()
}

// RecordStoreError records a store error by taxonomy type
func RecordStoreError(errorType string) {
	StoreErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordQualityIssue records a reported quality issue
func RecordQualityIssue(issueType, agent string) {
	QualityIssueCounter.With(prometheus.Labels{
		"issue_type": issueType,
		"agent":      agent,
	}).Inc()
}

// UpdatePendingRegistrations updates the pending registrations gauge
func UpdatePendingRegistrations(count int) {
	PendingRegistrationsGauge.Set(float64(count))
}

// UpdateDeadOperations updates the dead-letter queue depth gauge
func UpdateDeadOperations(count int) {
	DeadOperationsGauge.Set(float64(count))
}
