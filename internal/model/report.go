package model

// AnalysisPayload is the structured result of a successful analysis.
// Prices and scores are rounded to two decimals.
type AnalysisPayload struct {
	Symbol          string         `json:"symbol,omitempty"`
	CurrentPrice    float64        `json:"current_price"`
	TrendBias       Trend          `json:"trend_bias"`
	RiskLevel       RiskTier       `json:"risk_level"`
	RSI             float64        `json:"rsi"`
	VolatilityRange VolatilityBand `json:"volatility_range"`
	ConfidenceScore float64        `json:"confidence_score"`
}

// AnalysisReport is returned by every analysis, successful or not.
// Exactly one of Analysis and Error is set.
type AnalysisReport struct {
	Steps    []string         `json:"agent_steps"`
	Analysis *AnalysisPayload `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`

	// Cause is the typed error behind Error.
	Cause error `json:"-"`
}

// Failed reports whether the analysis stopped with an error payload.
func (r AnalysisReport) Failed() bool { return r.Error != "" }
