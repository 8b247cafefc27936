package model

import (
	"fmt"
	"strings"
)

// Trend is the market state predicted by the classifier.
type Trend string

const (
	TrendBearish Trend = "Bearish"
	TrendBullish Trend = "Bullish"
	TrendNeutral Trend = "Neutral"
)

// Trends lists the classifier labels in their canonical (sorted) order.
var Trends = []Trend{TrendBearish, TrendBullish, TrendNeutral}

// Verdict is the classifier output for one feature vector.
type Verdict struct {
	Label         Trend
	Confidence    float64   // max of Probabilities
	Probabilities []float64 // indexed like Trends
}

// RiskTier is the risk classification of a symbol, ordered by severity.
type RiskTier int

const (
	RiskLow RiskTier = iota
	RiskMedium
	RiskMediumHigh
	RiskHigh
)

var riskTierLabels = map[RiskTier]string{
	RiskLow:        "Low",
	RiskMedium:     "Medium",
	RiskMediumHigh: "Medium-High (High Volatility)",
	RiskHigh:       "High (Overextended RSI)",
}

func (t RiskTier) String() string {
	if s, ok := riskTierLabels[t]; ok {
		return s
	}
	return fmt.Sprintf("RiskTier(%d)", int(t))
}

// MarshalText renders the tier as its display label.
func (t RiskTier) MarshalText() ([]byte, error) {
	if _, ok := riskTierLabels[t]; !ok {
		return nil, fmt.Errorf("unknown risk tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText accepts either the display label or a short name.
func (t *RiskTier) UnmarshalText(text []byte) error {
	v, err := ParseRiskTier(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseRiskTier parses a display label ("Medium-High (High Volatility)")
// or a short name ("medium-high", "high").
func ParseRiskTier(s string) (RiskTier, error) {
	for tier, label := range riskTierLabels {
		if s == label {
			return tier, nil
		}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "medium-high", "medium_high", "mediumhigh":
		return RiskMediumHigh, nil
	case "high":
		return RiskHigh, nil
	}
	return RiskLow, fmt.Errorf("unknown risk tier %q", s)
}

// VolatilityBand is the illustrative next-day price range.
type VolatilityBand struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// RiskAssessment is the output of the risk rules.
type RiskAssessment struct {
	Tier RiskTier
	Band VolatilityBand
}
