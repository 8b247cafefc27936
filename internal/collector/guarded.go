package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"MarketScout/internal/model"
)

// GuardedFetcher rate-limits calls to an upstream Fetcher and stops calling
// it for a while after repeated failures.
type GuardedFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	// OnStateChange, when set, sees every breaker transition.
	OnStateChange func(source string, to gobreaker.State)
}

// NewGuardedFetcher wraps inner with a token bucket of rps/burst and a
// circuit breaker that opens after three consecutive failures.
func NewGuardedFetcher(inner Fetcher, rps float64, burst int) *GuardedFetcher {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	g := &GuardedFetcher{inner: inner, limiter: rate.NewLimiter(limit, burst)}
	st := gobreaker.Settings{
		Name:     inner.Name(),
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("fetch circuit breaker state change")
			if g.OnStateChange != nil {
				g.OnStateChange(name, to)
			}
		},
	}
	g.breaker = gobreaker.NewCircuitBreaker(st)
	return g
}

func (g *GuardedFetcher) Name() string { return g.inner.Name() }

func (g *GuardedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.FetchDailyBars(ctx, symbol, days)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.OHLCV), nil
}

// State reports the circuit breaker state.
func (g *GuardedFetcher) State() gobreaker.State { return g.breaker.State() }
