// Package risk turns RSI, ATR and price into a risk tier and a volatility band.
package risk

import "MarketScout/internal/model"

const (
	// RSI outside [OversoldRSI, OverboughtRSI] is overextended.
	OverboughtRSI = 70.0
	OversoldRSI   = 30.0

	// BandATRMultiple is the half-width of the volatility band in ATRs.
	BandATRMultiple = 2.0
)

// VolatilityTiers maps ATR as a fraction of price to a tier, most severe first.
var VolatilityTiers = []struct {
	MinATRRatio float64 // exclusive
	Tier        model.RiskTier
}{
	{0.03, model.RiskMediumHigh},
	{0.015, model.RiskMedium},
}

// Assess applies the rules in priority order: RSI extremity, then volatility.
func Assess(price, rsi, atr float64) model.RiskAssessment {
	return model.RiskAssessment{
		Tier: tier(price, rsi, atr),
		Band: Band(price, atr),
	}
}

func tier(price, rsi, atr float64) model.RiskTier {
	if rsi > OverboughtRSI || rsi < OversoldRSI {
		return model.RiskHigh
	}
	for _, t := range VolatilityTiers {
		if atr > t.MinATRRatio*price {
			return t.Tier
		}
	}
	return model.RiskLow
}

// Band returns [price - 2·ATR, price + 2·ATR].
func Band(price, atr float64) model.VolatilityBand {
	return model.VolatilityBand{
		Lower: price - BandATRMultiple*atr,
		Upper: price + BandATRMultiple*atr,
	}
}

// ATRFromBand recovers the ATR behind a band produced by Band.
func ATRFromBand(b model.VolatilityBand, price float64) float64 {
	return (b.Upper - price) / BandATRMultiple
}
