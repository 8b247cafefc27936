package classifier

import (
	"math/rand"

	"MarketScout/internal/model"
)

// Class indices follow model.Trends.
const (
	classBearish = iota
	classBullish
	classNeutral
	numClasses
)

// Sample is one synthetic training row. Price shapes the four features but
// is never itself a feature.
type Sample struct {
	Features Features
	Price    float64
	Label    model.Trend
}

// GenerateSynthetic builds samplesPerClass rows of each archetype, in
// bullish, bearish, neutral rotation, from a deterministic seed.
func GenerateSynthetic(seed int64, samplesPerClass int) []Sample {
	rng := rand.New(rand.NewSource(seed))
	uniform := func(lo, hi float64) float64 { return lo + (hi-lo)*rng.Float64() }

	out := make([]Sample, 0, samplesPerClass*numClasses)
	for i := 0; i < samplesPerClass; i++ {
		// Price above EMA fast, EMA fast above EMA slow.
		price := uniform(100, 200)
		fast := price * uniform(0.95, 0.99)
		slow := fast * uniform(0.90, 0.98)
		out = append(out, Sample{
			Features: Features{EMAFast: fast, EMASlow: slow, RSI: uniform(55, 80), ATR: price * 0.02},
			Price:    price,
			Label:    model.TrendBullish,
		})

		// Price below EMA fast, EMA fast below EMA slow.
		price = uniform(100, 200)
		fast = price * uniform(1.01, 1.05)
		slow = fast * uniform(1.02, 1.10)
		out = append(out, Sample{
			Features: Features{EMAFast: fast, EMASlow: slow, RSI: uniform(20, 45), ATR: price * 0.02},
			Price:    price,
			Label:    model.TrendBearish,
		})

		// Averages clustered around price.
		price = uniform(100, 200)
		fast = price * uniform(0.98, 1.02)
		slow = fast * uniform(0.98, 1.02)
		out = append(out, Sample{
			Features: Features{EMAFast: fast, EMASlow: slow, RSI: uniform(40, 60), ATR: price * 0.01},
			Price:    price,
			Label:    model.TrendNeutral,
		})
	}
	return out
}

func classIndex(t model.Trend) int {
	for i, label := range model.Trends {
		if label == t {
			return i
		}
	}
	return -1
}
