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
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emotion_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emotion_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Conversation operation counter
	ConversationOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_conversation_operations_total",
			Help: "Total number of conversation operations",
		},
		[]string{"operation"}, // operation can be "start", "respond", "complete", "abandon"
	)

	// Analytics operation counter
	AnalyticsOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_analytics_operations_total",
			Help: "Total number of analytics operations",
		},
		[]string{"operation"}, // operation can be "analyze", "dashboard", "overview", "trends", etc.
	)

	// Survey operation counter
	SurveyOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_survey_operations_total",
			Help: "Total number of survey operations",
		},
		[]string{"operation"},
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "missing_token", "invalid_token", "tenant_mismatch" etc.
	)

	// Tenant resolution error counter
	TenantErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_tenant_errors_total",
			Help: "Total number of tenant resolution errors",
		},
		[]string{"error_type"},
	)

	// LLM call counter by outcome
	LLMCallCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_llm_calls_total",
			Help: "Total number of text-generation API calls by outcome",
		},
		[]string{"call", "outcome"}, // outcome is "ok" or "fallback"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emotion_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emotion_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)

	// LLM call duration
	LLMCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emotion_llm_call_duration_seconds",
			Help:    "Duration of text-generation API calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"call"},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "emotion_info",
			Help: "Information about the emotion service",
		},
		[]string{"version"},
	)

	// Active tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "emotion_active_tenants",
			Help: "Number of currently active tenants",
		},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(ConversationOperationCounter)
	prometheus.MustRegister(AnalyticsOperationCounter)
	prometheus.MustRegister(SurveyOperationCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(TenantErrorCounter)
	prometheus.MustRegister(LLMCallCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(LLMCallDuration)

	// Register gauges
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(ActiveTenantsGauge)

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

// TrackLLMCall measures text-generation call durations
func TrackLLMCall(call string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		LLMCallDuration.With(prometheus.Labels{
			"call": call,
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

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantError records a tenant resolution error
func RecordTenantError(errorType string) {
	TenantErrorCounter.With(prometheus.Labels{"error_type": errorType}).Inc()
}

// RecordConversationOperation records a conversation operation
func RecordConversationOperation(operation string) {
	ConversationOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordAnalyticsOperation records an analytics operation
func RecordAnalyticsOperation(operation string) {
	AnalyticsOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordSurveyOperation records a survey operation
func RecordSurveyOperation(operation string) {
	SurveyOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordLLMCall records a text-generation call outcome
func RecordLLMCall(call, outcome string) {
	LLMCallCounter.With(prometheus.Labels{"call": call, "outcome": outcome}).Inc()
}

// UpdateActiveTenants updates the active tenants gauge
func UpdateActiveTenants(count int) {
	ActiveTenantsGauge.Set(float64(count))
}
