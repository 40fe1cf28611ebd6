package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Quote metrics
	QuotesCalculated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_quotes_total",
			Help: "Total number of price quotes calculated",
		},
		[]string{"catalog", "outcome"},
	)

	AdjustmentsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_adjustments_applied_total",
			Help: "Total number of pricing rule adjustments applied",
		},
		[]string{"rule_type", "direction"},
	)

	QuoteSavingsPercentage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricing_quote_savings_percentage",
			Help:    "Distribution of savings percentage per quote; negative values are surcharges",
			Buckets: []float64{-50, -25, -15, -5, 0, 5, 10, 15, 20, 30, 50},
		},
	)

	QuoteCalculationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricing_quote_duration_seconds",
			Help:    "Time spent evaluating pricing rules",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)

	// Rate limiting
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Event metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_events_published_total",
			Help: "Total number of quote events published",
		},
		[]string{"event_type", "status"},
	)

	// Redis metrics
	RedisOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)

	// CircuitBreakerState is 0 closed, 1 open, 2 half-open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordQuote records a calculated quote
func RecordQuote(catalog, outcome string, savingsPercentage int, duration time.Duration) {
	QuotesCalculated.WithLabelValues(catalog, outcome).Inc()
	QuoteSavingsPercentage.Observe(float64(savingsPercentage))
	QuoteCalculationDuration.Observe(duration.Seconds())
}

// RecordAdjustment records a single applied rule adjustment
func RecordAdjustment(ruleType string, increase bool) {
	direction := "discount"
	if increase {
		direction = "surcharge"
	}
	AdjustmentsApplied.WithLabelValues(ruleType, direction).Inc()
}

// RecordRateLimited records a rejected request
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

// RecordEventPublished records a publish attempt
func RecordEventPublished(eventType string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(eventType, status).Inc()
}

// RecordRedisOperation records a Redis operation
func RecordRedisOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RedisOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordError records an error
func RecordError(errorType, component string) {
	ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// SetCircuitBreakerState records the state of a named circuit breaker
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
