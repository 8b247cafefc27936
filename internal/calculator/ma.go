package calculator

import (
	"math"

	"MarketScout/internal/model"
)

// SMA computes the trailing simple moving average of values over window.
// The first window-1 entries are NaN.
func SMA(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errWindow
	}
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		// Summing each window afresh keeps an all-zero window exactly zero.
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(window)
	}
	return out, nil
}

// EMA computes the exponential moving average of close prices with
// alpha = 2/(window+1), seeded by the first close. Defined at every index.
func EMA(bars []model.OHLCV, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errWindow
	}
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out, nil
	}
	alpha := 2.0 / float64(window+1)
	out[0] = bars[0].Close
	for i := 1; i < len(bars); i++ {
		out[i] = alpha*bars[i].Close + (1-alpha)*out[i-1]
	}
	return out, nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
