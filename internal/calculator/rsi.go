package calculator

import (
	"math"

	"MarketScout/internal/model"
)

// RSI computes the relative strength index series over window.
//
// Gains and losses are bar-to-bar close deltas; the first bar contributes a
// zero gain and a zero loss. A value is undefined during warm-up and
// wherever the average loss is exactly zero. Undefined values become
// NeutralRSI when opts.FallbackNeutralRSI is set and NaN otherwise.
func RSI(bars []model.OHLCV, window int, opts Options) ([]float64, error) {
	if window <= 0 {
		return nil, errWindow
	}
	closes := extractCloses(bars)
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	var avgGain, avgLoss []float64
	var err error
	if opts.Smoothing == SmoothingWilder {
		avgGain = wilderAverage(gains, window)
		avgLoss = wilderAverage(losses, window)
	} else {
		if avgGain, err = SMA(gains, window); err != nil {
			return nil, err
		}
		if avgLoss, err = SMA(losses, window); err != nil {
			return nil, err
		}
	}

	out := make([]float64, len(closes))
	for i := range out {
		out[i] = rsiValue(avgGain[i], avgLoss[i])
		if math.IsNaN(out[i]) && opts.FallbackNeutralRSI {
			out[i] = NeutralRSI
		}
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) || avgLoss == 0 {
		return math.NaN()
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// wilderAverage seeds with the simple mean of the first window deltas
// (indices 1..window) and then applies Wilder smoothing.
func wilderAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) < window+1 {
		return out
	}
	avg := 0.0
	for i := 1; i <= window; i++ {
		avg += values[i]
	}
	avg /= float64(window)
	out[window] = avg
	for i := window + 1; i < len(values); i++ {
		avg = (avg*float64(window-1) + values[i]) / float64(window)
		out[i] = avg
	}
	return out
}
