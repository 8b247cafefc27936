// Package explorer turns analysis reports into illustrative one-year
// scenarios for a savings split and a risk profile.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"MarketScout/internal/model"
	"MarketScout/internal/risk"
)

const (
	// MaxPicks caps the number of aligned stocks in one exploration.
	MaxPicks = 5
	// TradingDays annualizes a daily volatility.
	TradingDays = 252
	// NeutralDrift is the share of annual volatility used for the neutral outcome.
	NeutralDrift = 0.2

	TransparencyNote = "This tool illustrates potential outcomes based on historical data. It is NOT investment advice. Market conditions change."
)

// DefaultCandidates is a small pool spanning growth, finance, staples and
// high-volatility names.
var DefaultCandidates = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN",
	"JPM", "V",
	"PG", "KO", "JNJ",
	"NVDA", "TSLA",
}

var ErrInvalidRequest = errors.New("invalid exploration request")

// Analyzer produces an analysis report for a symbol.
type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string) model.AnalysisReport
}

// Request is one exploration query. EquityPct is in percent.
type Request struct {
	Savings   float64           `json:"savings"`
	EquityPct float64           `json:"equity_pct"`
	Profile   model.RiskProfile `json:"risk_profile"`
}

// Validate checks the amounts and normalizes the profile.
func (r *Request) Validate() error {
	if math.IsNaN(r.Savings) || math.IsInf(r.Savings, 0) || r.Savings < 0 {
		return fmt.Errorf("%w: savings must be a non-negative amount", ErrInvalidRequest)
	}
	if math.IsNaN(r.EquityPct) || r.EquityPct < 0 || r.EquityPct > 100 {
		return fmt.Errorf("%w: equity_pct must be within [0, 100]", ErrInvalidRequest)
	}
	p, err := model.ParseRiskProfile(string(r.Profile))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	r.Profile = p
	return nil
}

// Explorer selects candidates whose analysis fits a risk profile.
type Explorer struct {
	analyzer    Analyzer
	candidates  []string
	maxPicks    int
	concurrency int
}

// New creates an Explorer over candidates. Empty candidates use
// DefaultCandidates and a non-positive maxPicks uses MaxPicks.
func New(a Analyzer, candidates []string, maxPicks int) *Explorer {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	if maxPicks <= 0 {
		maxPicks = MaxPicks
	}
	return &Explorer{
		analyzer:    a,
		candidates:  append([]string(nil), candidates...),
		maxPicks:    maxPicks,
		concurrency: runtime.GOMAXPROCS(0),
	}
}

// Candidates returns the candidate pool in selection order.
func (e *Explorer) Candidates() []string { return append([]string(nil), e.candidates...) }

// Explore splits savings and returns up to maxPicks aligned stocks, in pool
// order. Candidates whose analysis fails are skipped.
func (e *Explorer) Explore(ctx context.Context, req Request) (*model.Exploration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	savings := decimal.NewFromFloat(req.Savings)
	pct := decimal.NewFromFloat(req.EquityPct)
	equity := savings.Mul(pct).Div(decimal.NewFromInt(100))
	safe := savings.Sub(equity)

	out := &model.Exploration{
		SavingsSummary: model.SavingsSummary{
			TotalSavings: req.Savings,
			EquityAllocation: model.Allocation{
				Amount:     equity.Round(2).InexactFloat64(),
				Percentage: req.EquityPct,
				Label:      "Scenario-based equity exposure",
			},
			SafeAllocation: model.Allocation{
				Amount:     safe.Round(2).InexactFloat64(),
				Percentage: decimal.NewFromInt(100).Sub(pct).InexactFloat64(),
				Label:      "Remaining non-equity savings",
			},
		},
		AlignedStocks:    []model.StockScenario{},
		TransparencyNote: TransparencyNote,
	}

	reports, err := e.analyzeAll(ctx)
	if err != nil {
		return nil, err
	}
	for i, rep := range reports {
		if len(out.AlignedStocks) >= e.maxPicks {
			break
		}
		symbol := e.candidates[i]
		if rep.Failed() || rep.Analysis == nil {
			log.Debug().Str("symbol", symbol).Str("error", rep.Error).Msg("explorer skipping candidate")
			continue
		}
		if !Aligned(*rep.Analysis, req.Profile) {
			continue
		}
		out.AlignedStocks = append(out.AlignedStocks, scenarioFor(symbol, *rep.Analysis, equity))
	}
	return out, nil
}

func (e *Explorer) analyzeAll(ctx context.Context) ([]model.AnalysisReport, error) {
	reports := make([]model.AnalysisReport, len(e.candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, symbol := range e.candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = e.analyzer.AnalyzeSymbol(gctx, symbol)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("explore candidates: %w", err)
	}
	return reports, nil
}

// Aligned reports whether an analysis fits the profile: its tier must not
// exceed the profile's maximum, and a bearish trend needs an aggressive profile.
func Aligned(a model.AnalysisPayload, p model.RiskProfile) bool {
	if a.RiskLevel > p.MaxTier() {
		return false
	}
	return a.TrendBias != model.TrendBearish || p == model.ProfileAggressive
}

// AnnualizedVolatility approximates yearly volatility from a daily ATR.
func AnnualizedVolatility(price, atr float64) float64 {
	if price <= 0 {
		return 0
	}
	return atr / price * math.Sqrt(TradingDays)
}

func scenarioFor(symbol string, a model.AnalysisPayload, equity decimal.Decimal) model.StockScenario {
	price := a.CurrentPrice
	atr := risk.ATRFromBand(a.VolatilityRange, price)
	vol := AnnualizedVolatility(price, atr)

	qty := decimal.Zero
	if price > 0 {
		qty = equity.Div(decimal.NewFromFloat(price))
	}
	if a.Symbol != "" {
		symbol = a.Symbol
	}
	return model.StockScenario{
		Symbol:               symbol,
		CurrentPrice:         price,
		Trend:                a.TrendBias,
		RiskProfile:          a.RiskLevel,
		IllustrativeQuantity: qty.Round(2).InexactFloat64(),
		AllocatableAmount:    equity.Round(2).InexactFloat64(),
		Outcomes: model.OutcomeScenarios{
			Favorable:   outcome(price, vol, "Historical volatility upside"),
			Neutral:     outcome(price, NeutralDrift*vol, "Modest growth aligned with trend"),
			Unfavorable: outcome(price, -vol, "Historical volatility downside"),
		},
	}
}

func outcome(price, change float64, desc string) model.Scenario {
	p := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(1 + change))
	return model.Scenario{
		Price:          p.Round(2).InexactFloat64(),
		ValueChangePct: decimal.NewFromFloat(change * 100).Round(1).InexactFloat64(),
		Description:    desc,
	}
}
