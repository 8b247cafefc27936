package calculator

import (
	"errors"
	"fmt"
	"math"
)

// NeutralRSI is reported for undefined RSI values when the neutral fallback is on.
const NeutralRSI = 50.0

// Smoothing selects how RSI and ATR average their inputs.
type Smoothing string

const (
	// SmoothingSimple uses a trailing simple moving average over the window.
	SmoothingSimple Smoothing = "simple"
	// SmoothingWilder uses Wilder's recursive smoothing.
	SmoothingWilder Smoothing = "wilder"
)

// ParseSmoothing validates a smoothing name. Empty means simple.
func ParseSmoothing(s string) (Smoothing, error) {
	switch Smoothing(s) {
	case "", SmoothingSimple:
		return SmoothingSimple, nil
	case SmoothingWilder:
		return SmoothingWilder, nil
	}
	return "", fmt.Errorf("unknown smoothing %q", s)
}

// Options tunes RSI and ATR.
type Options struct {
	Smoothing Smoothing
	// FallbackNeutralRSI reports every undefined RSI value (warm-up or zero
	// average loss) as NeutralRSI instead of leaving it missing.
	FallbackNeutralRSI bool
}

// DefaultOptions returns simple smoothing with the neutral RSI fallback.
func DefaultOptions() Options {
	return Options{Smoothing: SmoothingSimple, FallbackNeutralRSI: true}
}

var errWindow = errors.New("window must be positive")

// Missing reports whether v marks an undefined indicator value.
func Missing(v float64) bool { return math.IsNaN(v) }

// Latest returns the last value of a series, or NaN when it is empty.
func Latest(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
