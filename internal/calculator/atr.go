package calculator

import (
	"math"

	"github.com/markcheno/go-talib"

	"MarketScout/internal/model"
)

// TrueRange returns the per-bar true range. The first bar has no previous
// close, so its true range is high-low.
func TrueRange(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prev := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
		}
		out[i] = tr
	}
	return out
}

// ATR computes the average true range over window. Warm-up values are NaN
// and are never substituted.
func ATR(bars []model.OHLCV, window int, opts Options) ([]float64, error) {
	if window <= 0 {
		return nil, errWindow
	}
	if opts.Smoothing == SmoothingWilder {
		return wilderATR(bars, window), nil
	}
	return SMA(TrueRange(bars), window)
}

func wilderATR(bars []model.OHLCV, window int) []float64 {
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}
	out := make([]float64, len(bars))
	if len(bars) <= window {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	series := talib.Atr(highs, lows, closes, window)
	for i := range out {
		// talib leaves its lookback period zero-filled.
		if i < window || i >= len(series) {
			out[i] = math.NaN()
			continue
		}
		out[i] = series[i]
	}
	return out
}
