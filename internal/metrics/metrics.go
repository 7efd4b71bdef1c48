// Package metrics exposes the prometheus collectors for the API and the
// recommendation providers.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid_response"
	OutcomeSkipped = "circuit_open"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sanapath_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanapath_recommendation_requests_total",
			Help: "Recommendation provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	RecommendationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sanapath_recommendation_latency_seconds",
			Help:    "Latency of recommendation provider calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanapath_circuit_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	ActivityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanapath_activity_events_total",
			Help: "Progress activity events recorded",
		},
		[]string{"activity_type"},
	)

	AchievementsUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanapath_achievements_unlocked_total",
			Help: "Achievements unlocked",
		},
		[]string{"achievement_id"},
	)

	CommunityMembership = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanapath_community_membership_changes_total",
			Help: "Community project join and leave operations",
		},
		[]string{"action"},
	)
)

// RecordProvider counts one provider call and observes its latency.
func RecordProvider(provider, outcome string, d time.Duration) {
	RecommendationRequests.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeSkipped {
		RecommendationLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// GinMiddleware observes request duration labelled by the route pattern.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
