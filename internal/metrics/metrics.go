package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels.
const (
	// Gateway names
	GatewayLLM    = "llm"
	GatewayMarket = "market"

	// Gateway call results
	ResultSuccess = "success"
	ResultFailure = "failure"

	// Gateway error categories
	GatewayErrorTimeout     = "timeout"
	GatewayErrorRateLimit   = "rate_limit"
	GatewayErrorAuth        = "authentication"
	GatewayErrorNetwork     = "network"
	GatewayErrorInvalidReq  = "invalid_request"
	GatewayErrorServerError = "server_error"
	GatewayErrorMalformed   = "malformed"
	GatewayErrorBreaker     = "breaker_open"
	GatewayErrorOther       = "other"

	// Cache lookup results
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// statusCoder is implemented by gateway errors that carry an HTTP status
type statusCoder interface {
	HTTPStatus() int
}

// NormalizeGatewayError maps arbitrary gateway errors to a bounded set
func NormalizeGatewayError(err error) string {
	if err == nil {
		return ""
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch code := sc.HTTPStatus(); {
		case code == 429:
			return GatewayErrorRateLimit
		case code == 401 || code == 403:
			return GatewayErrorAuth
		case code >= 500:
			return GatewayErrorServerError
		case code >= 400:
			return GatewayErrorInvalidReq
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "circuit breaker") || strings.Contains(errStr, "too many requests in half-open"):
		return GatewayErrorBreaker
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return GatewayErrorTimeout
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") || strings.Contains(errStr, "no such host"):
		return GatewayErrorNetwork
	case strings.Contains(errStr, "parse") || strings.Contains(errStr, "unmarshal") || strings.Contains(errStr, "no choices") || strings.Contains(errStr, "empty"):
		return GatewayErrorMalformed
	default:
		return GatewayErrorOther
	}
}

// Gateway metrics
var (
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwise_gateway_requests_total",
		Help: "Calls to external gateways by gateway and result",
	}, []string{"gateway", "result"})

	GatewayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwise_gateway_errors_total",
		Help: "Gateway failures by gateway and error category",
	}, []string{"gateway", "category"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riskwise_gateway_latency_ms",
		Help:    "Gateway call latency in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}, []string{"gateway"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwise_market_cache_lookups_total",
		Help: "Market-data cache lookups by result",
	}, []string{"result"})
)

// Engine metrics
var (
	Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwise_fallbacks_total",
		Help: "Fallbacks taken by failure kind",
	}, []string{"kind"})

	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwise_classifications_total",
		Help: "Risk tiers produced by source (rule, tree, forest)",
	}, []string{"source", "tier"})

	DegradedInferences = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskwise_degraded_inferences_total",
		Help: "Inferences that ran with neutral values substituted for missing features",
	})

	ModelTrained = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riskwise_model_trained",
		Help: "1 when a trained model bundle is loaded, 0 when running on the rule only",
	})

	ModelAccuracy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "riskwise_model_accuracy",
		Help: "Held-out accuracy of the last training run by model",
	}, []string{"model"})

	Recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwise_recommendations_total",
		Help: "Recommendations served by catalogue key",
	}, []string{"tier"})

	RoutedTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwise_routed_tasks_total",
		Help: "Sub-tasks routed by category",
	}, []string{"category"})

	Queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwise_queries_total",
		Help: "Free-text queries processed by synthesis outcome",
	}, []string{"outcome"})
)

// API metrics
var (
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riskwise_api_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{5, 10, 50, 100, 500, 1000, 5000, 30000},
	}, []string{"method", "path", "status"})
)

// RecordGatewayCall records the outcome and latency of one gateway call
func RecordGatewayCall(gateway string, err error, durationMs float64) {
	GatewayLatency.WithLabelValues(gateway).Observe(durationMs)
	if err != nil {
		GatewayRequests.WithLabelValues(gateway, ResultFailure).Inc()
		GatewayErrors.WithLabelValues(gateway, NormalizeGatewayError(err)).Inc()
		return
	}
	GatewayRequests.WithLabelValues(gateway, ResultSuccess).Inc()
}

// RecordCacheLookup records a market cache lookup
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// RecordFallback records a fallback taken for a failure kind
func RecordFallback(kind string) {
	Fallbacks.WithLabelValues(kind).Inc()
}

// RecordClassification records one tier produced by a source
func RecordClassification(source, tier string) {
	Classifications.WithLabelValues(source, tier).Inc()
}

// RecordDegradedInference records an inference run with substituted features
func RecordDegradedInference() {
	DegradedInferences.Inc()
}

// SetModelTrained flips the trained-model gauge
func SetModelTrained(trained bool) {
	if trained {
		ModelTrained.Set(1)
		return
	}
	ModelTrained.Set(0)
}

// SetModelAccuracy records held-out accuracy for a model
func SetModelAccuracy(model string, accuracy float64) {
	ModelAccuracy.WithLabelValues(model).Set(accuracy)
}

// RecordRecommendation records a recommendation served
func RecordRecommendation(tier string) {
	Recommendations.WithLabelValues(tier).Inc()
}

// RecordRoutedTask records a sub-task routed to a category
func RecordRoutedTask(category string) {
	RoutedTasks.WithLabelValues(category).Inc()
}

// RecordQuery records a processed query by synthesis outcome
func RecordQuery(outcome string) {
	Queries.WithLabelValues(outcome).Inc()
}

// RecordAPIRequest records an API request with duration
func RecordAPIRequest(method, path, statusCode string, durationMs float64) {
	APIRequestDuration.WithLabelValues(method, path, statusCode).Observe(durationMs)
}
