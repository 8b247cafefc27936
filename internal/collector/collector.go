package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"MarketScout/internal/model"
)

// ErrNoData is returned when a source has no usable bars for a symbol.
var ErrNoData = errors.New("no price data")

// DefaultHistoryDays covers about six months of trading days.
const DefaultHistoryDays = 126

// Collector loads normalized price series from a Fetcher.
type Collector struct {
	Fetcher Fetcher
	Days    int
	Now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, days int) *Collector {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	return &Collector{Fetcher: fetcher, Days: days, Now: time.Now}
}

// Load fetches the daily history of symbol and returns it sorted by time,
// with duplicate timestamps and unusable bars removed.
func (c *Collector) Load(ctx context.Context, symbol string) (model.PriceSeries, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return model.PriceSeries{}, errors.New("symbol is required")
	}
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.Days)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("fetch daily bars: %w", err)
	}
	bars = normalize(bars)
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	log.Debug().
		Str("symbol", symbol).
		Str("source", c.Fetcher.Name()).
		Int("bars", len(bars)).
		Msg("price series loaded")
	return model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: c.Now()}, nil
}

func normalize(in []model.OHLCV) []model.OHLCV {
	bars := make([]model.OHLCV, 0, len(in))
	for _, b := range in {
		if !b.Valid() {
			continue
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b // later duplicates win
			continue
		}
		out = append(out, b)
	}
	return out
}
