package model

import "math"

// IndicatorSnapshot holds the latest-bar value of each derived series.
// A missing value is NaN.
type IndicatorSnapshot struct {
	EMAFast float64
	EMASlow float64
	RSI     float64
	ATR     float64
}

// Complete reports whether all four values are present.
func (s IndicatorSnapshot) Complete() bool {
	return !math.IsNaN(s.EMAFast) && !math.IsNaN(s.EMASlow) &&
		!math.IsNaN(s.RSI) && !math.IsNaN(s.ATR)
}
