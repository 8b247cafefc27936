package collector

import (
	"context"
	"time"

	"MarketScout/internal/model"
)

// FetchObserver receives the outcome of every fetch.
type FetchObserver interface {
	ObserveFetch(source string, elapsed time.Duration, err error)
}

// InstrumentedFetcher reports fetch latency and errors to an observer.
type InstrumentedFetcher struct {
	inner    Fetcher
	observer FetchObserver
}

// Instrument wraps inner so that obs sees every fetch.
func Instrument(inner Fetcher, obs FetchObserver) *InstrumentedFetcher {
	return &InstrumentedFetcher{inner: inner, observer: obs}
}

func (f *InstrumentedFetcher) Name() string { return f.inner.Name() }

func (f *InstrumentedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	start := time.Now()
	bars, err := f.inner.FetchDailyBars(ctx, symbol, days)
	f.observer.ObserveFetch(f.inner.Name(), time.Since(start), err)
	return bars, err
}
