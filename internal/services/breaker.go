package services

import (
	"context"
	"time"

	"github.com/sanapath/sanapath/internal/metrics"
	"github.com/sanapath/sanapath/pkg/logger"
	gobreaker "github.com/sony/gobreaker/v2"
)

// breakerProvider skips a provider after repeated failures so a dead upstream
// does not add its timeout to every survey.
type breakerProvider struct {
	inner RecommendationProvider
	cb    *gobreaker.CircuitBreaker[*RecommendationSet]
}

// WithCircuitBreaker opens after 3 consecutive failures and retries after a minute.
func WithCircuitBreaker(p RecommendationProvider) RecommendationProvider {
	return WithCircuitBreakerSettings(p, 3, time.Minute)
}

func WithCircuitBreakerSettings(p RecommendationProvider, maxFailures uint32, openFor time.Duration) RecommendationProvider {
	name := p.Name()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*RecommendationSet](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[Recommend] circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &breakerProvider{inner: p, cb: cb}
}

func (b *breakerProvider) Name() string    { return b.inner.Name() }
func (b *breakerProvider) Available() bool { return b.inner.Available() }
func (b *breakerProvider) Model() string   { return modelOf(b.inner) }

func (b *breakerProvider) Recommend(ctx context.Context, survey *Survey) (*RecommendationSet, error) {
	return b.cb.Execute(func() (*RecommendationSet, error) {
		return b.inner.Recommend(ctx, survey)
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
