package collector

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"MarketScout/internal/model"
)

// SyntheticFetcher generates a deterministic random walk per symbol. It
// serves offline runs and tests.
type SyntheticFetcher struct {
	Seed int64
	// End is the date of the last bar; zero means today (UTC).
	End time.Time
}

func (s *SyntheticFetcher) Name() string { return "synthetic" }

func (s *SyntheticFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(s.Seed ^ int64(h.Sum64())))

	end := s.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	end = end.Truncate(24 * time.Hour)

	// Per-symbol character: starting level, drift and daily volatility.
	price := 50 + rng.Float64()*250
	drift := (rng.Float64() - 0.45) * 0.004
	vol := 0.005 + rng.Float64()*0.03

	bars := make([]model.OHLCV, days)
	for i := 0; i < days; i++ {
		open := price
		price *= math.Exp(drift + vol*rng.NormFloat64())
		wick := price * vol * rng.Float64()
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, i-days+1),
			Open:   open,
			High:   math.Max(open, price) + wick,
			Low:    math.Min(open, price) - wick,
			Close:  price,
			Volume: 5e5 + rng.Float64()*5e6,
		}
	}
	return bars, nil
}
