package model

import (
	"fmt"
	"strings"
)

// RiskProfile is an investor's stated risk appetite.
type RiskProfile string

const (
	ProfileConservative RiskProfile = "conservative"
	ProfileBalanced     RiskProfile = "balanced"
	ProfileAggressive   RiskProfile = "aggressive"
)

// ParseRiskProfile accepts a profile name in any case. An empty name is
// balanced.
func ParseRiskProfile(s string) (RiskProfile, error) {
	switch p := RiskProfile(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProfileBalanced, nil
	case ProfileConservative, ProfileBalanced, ProfileAggressive:
		return p, nil
	}
	return "", fmt.Errorf("unknown risk profile %q", s)
}

// MaxTier is the most severe risk tier the profile accepts.
func (p RiskProfile) MaxTier() RiskTier {
	switch p {
	case ProfileConservative:
		return RiskLow
	case ProfileBalanced:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Allocation is one side of the savings split.
type Allocation struct {
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	Label      string  `json:"label"`
}

// SavingsSummary describes how savings were split.
type SavingsSummary struct {
	TotalSavings     float64    `json:"total_savings"`
	EquityAllocation Allocation `json:"equity_allocation"`
	SafeAllocation   Allocation `json:"safe_allocation"`
}

// Scenario is one illustrative one-year outcome.
type Scenario struct {
	Price          float64 `json:"price"`
	ValueChangePct float64 `json:"value_change_pct"`
	Description    string  `json:"description"`
}

// OutcomeScenarios groups the three one-year outcomes.
type OutcomeScenarios struct {
	Favorable   Scenario `json:"favorable"`
	Neutral     Scenario `json:"neutral"`
	Unfavorable Scenario `json:"unfavorable"`
}

// StockScenario is a candidate that passed the profile filter.
type StockScenario struct {
	Symbol               string           `json:"symbol"`
	CurrentPrice         float64          `json:"current_price"`
	Trend                Trend            `json:"trend"`
	RiskProfile          RiskTier         `json:"risk_profile"`
	IllustrativeQuantity float64          `json:"illustrative_quantity"`
	AllocatableAmount    float64          `json:"allocatable_amount"`
	Outcomes             OutcomeScenarios `json:"outcome_scenarios_1yr"`
}

// Exploration is the result of a scenario exploration.
type Exploration struct {
	SavingsSummary   SavingsSummary  `json:"savings_summary"`
	AlignedStocks    []StockScenario `json:"aligned_stocks"`
	TransparencyNote string          `json:"transparency_note"`
}
