package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Narrative request outcomes
const (
	OutcomeSuccess        = "success"
	OutcomeUnavailable    = "unavailable"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeMissingContent = "missing_content"
	OutcomeInvalidJSON    = "invalid_json"
)

// Story sources
const (
	SourceNarrative = "narrative"
	SourceFallback  = "fallback"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastory_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastory_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datastory_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	NarrativeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastory_narrative_requests_total",
			Help: "Total number of narrative service requests by outcome",
		},
		[]string{"operation", "outcome"},
	)

	NarrativeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastory_narrative_request_duration_seconds",
			Help:    "Duration of narrative service requests in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"operation"},
	)

	NarrativeTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastory_narrative_tokens_total",
			Help: "Tokens reported by the narrative service",
		},
		[]string{"model", "kind"},
	)

	StoriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastory_stories_total",
			Help: "Total number of stories rendered by source",
		},
		[]string{"source"},
	)

	ChartBindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastory_chart_bindings_total",
			Help: "Total number of chart binding attempts by chart type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

// ObserveNarrative records one narrative service call
func ObserveNarrative(operation, outcome string, elapsed time.Duration) {
	NarrativeRequestsTotal.WithLabelValues(operation, outcome).Inc()
	NarrativeRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// AddTokens records prompt and completion token counts for a model
func AddTokens(model string, prompt, completion int) {
	NarrativeTokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	NarrativeTokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
}

// ObserveChart records one chart binding; chartType is bounded by the caller
func ObserveChart(chartType string, ok bool) {
	outcome := "bound"
	if !ok {
		outcome = "rejected"
	}
	ChartBindingsTotal.WithLabelValues(chartType, outcome).Inc()
}

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		status := strconv.Itoa(ww.Status())
		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// GinMiddleware records the same HTTP metrics for gin routers, labelled by the
// matched route. Unmatched requests are labelled "unmatched".
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
