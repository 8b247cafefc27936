// Package agent orchestrates indicators, classifier and risk rules into an
// analysis report with a step-by-step trace.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"MarketScout/internal/calculator"
	"MarketScout/internal/classifier"
	"MarketScout/internal/model"
	"MarketScout/internal/risk"
)

var (
	// ErrDataUnavailable means no price data could be obtained.
	ErrDataUnavailable = errors.New("price data unavailable")
	// ErrIndeterminateIndicator means RSI or ATR is undefined at the latest bar.
	ErrIndeterminateIndicator = errors.New("indicator undefined at latest bar")
	// ErrInvalidSeries means a bar carries non-finite values or a non-positive close.
	ErrInvalidSeries = errors.New("invalid price series")
)

// Classifier predicts a market state from indicator features.
type Classifier interface {
	Classify(f classifier.Features) (model.Verdict, error)
}

// SeriesLoader supplies the price history of a symbol.
type SeriesLoader interface {
	Load(ctx context.Context, symbol string) (model.PriceSeries, error)
}

// Settings are the indicator windows and options used by the pipeline.
type Settings struct {
	EMAFast    int
	EMASlow    int
	RSIPeriod  int
	ATRPeriod  int
	Indicators calculator.Options
}

// DefaultSettings returns EMA20/EMA50, RSI(14), ATR(14) with the neutral RSI fallback.
func DefaultSettings() Settings {
	return Settings{
		EMAFast:    20,
		EMASlow:    50,
		RSIPeriod:  14,
		ATRPeriod:  14,
		Indicators: calculator.DefaultOptions(),
	}
}

// Validate checks that every window is positive.
func (s Settings) Validate() error {
	windows := []struct {
		name  string
		value int
	}{
		{"ema_fast", s.EMAFast},
		{"ema_slow", s.EMASlow},
		{"rsi_period", s.RSIPeriod},
		{"atr_period", s.ATRPeriod},
	}
	for _, w := range windows {
		if w.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", w.name, w.value)
		}
	}
	return nil
}

// MinBars is the shortest series that yields a complete snapshot.
func (s Settings) MinBars() int {
	return max(s.RSIPeriod, s.ATRPeriod)
}

// Pipeline runs analyses. It holds no per-analysis state, so one Pipeline
// may serve concurrent calls.
type Pipeline struct {
	classifier Classifier
	loader     SeriesLoader
	settings   Settings
}

// NewPipeline creates a Pipeline. loader may be nil when only Analyze is used.
func NewPipeline(c Classifier, loader SeriesLoader, settings Settings) *Pipeline {
	return &Pipeline{classifier: c, loader: loader, settings: settings}
}

// Settings returns the pipeline settings.
func (p *Pipeline) Settings() Settings { return p.settings }

// AnalyzeSymbol loads the price history of symbol and analyzes it. Load
// failures are reported as ErrDataUnavailable in the returned report.
func (p *Pipeline) AnalyzeSymbol(ctx context.Context, symbol string) model.AnalysisReport {
	tr := &trace{}
	tr.logf("Initiating analysis for %s...", symbol)
	tr.logf("Tool: price provider -> fetching daily OHLCV history for %s.", symbol)
	if p.loader == nil {
		tr.logf("Error: no price provider configured. Stopping analysis.")
		return tr.fail(ErrDataUnavailable, "Data not found")
	}
	series, err := p.loader.Load(ctx, symbol)
	if err != nil {
		tr.logf("Error: no data found for %s (%v). Stopping analysis.", symbol, err)
		return tr.fail(fmt.Errorf("%w: %w", ErrDataUnavailable, err), "Data not found")
	}
	if series.Symbol == "" {
		series.Symbol = symbol
	}
	return p.run(tr, series)
}

// Analyze runs the pipeline over an already loaded series.
func (p *Pipeline) Analyze(series model.PriceSeries) model.AnalysisReport {
	tr := &trace{}
	tr.logf("Initiating analysis for %s...", displaySymbol(series.Symbol))
	return p.run(tr, series)
}

func (p *Pipeline) run(tr *trace, series model.PriceSeries) model.AnalysisReport {
	symbol := displaySymbol(series.Symbol)
	last, ok := series.Last()
	if !ok {
		tr.logf("Error: no data found for %s. Stopping analysis.", symbol)
		return tr.fail(ErrDataUnavailable, "Data not found")
	}
	for i, b := range series.Bars {
		if !b.Valid() {
			tr.logf("Error: bar %d of %s has non-finite values or a non-positive close. Stopping analysis.", i, symbol)
			return tr.fail(fmt.Errorf("%w: bar %d", ErrInvalidSeries, i), "Invalid price data")
		}
	}
	price := last.Close
	tr.logf("Data acquired: %d bars. Last close price: %.2f", series.Len(), price)

	s := p.settings
	tr.logf("Tool: indicator engine -> calculating EMA%d, EMA%d, RSI(%d), ATR(%d).",
		s.EMAFast, s.EMASlow, s.RSIPeriod, s.ATRPeriod)
	snap, err := p.snapshot(series.Bars)
	if err != nil {
		tr.logf("Error: indicator computation failed (%v). Stopping analysis.", err)
		return tr.fail(err, "Indicator computation failed")
	}
	if !snap.Complete() {
		tr.logf("Error: RSI/ATR undefined at the latest bar (%d bars, %d required). Stopping analysis.",
			series.Len(), s.MinBars())
		return tr.fail(ErrIndeterminateIndicator, "Insufficient data")
	}
	tr.logf("Indicators computed: RSI=%.2f, ATR=%.2f, EMA%d=%.2f, EMA%d=%.2f",
		snap.RSI, snap.ATR, s.EMAFast, snap.EMAFast, s.EMASlow, snap.EMASlow)

	tr.logf("Tool: market classifier -> evaluating market state features.")
	if p.classifier == nil {
		tr.logf("Error: no classifier configured. Stopping analysis.")
		return tr.fail(errors.New("classifier not configured"), "Classification failed")
	}
	verdict, err := p.classifier.Classify(classifier.FeaturesFromSnapshot(snap))
	if err != nil {
		tr.logf("Error: classification failed (%v). Stopping analysis.", err)
		return tr.fail(err, "Classification failed")
	}
	tr.logf("Classifier output: class=%s, confidence=%.2f", verdict.Label, verdict.Confidence)

	tr.logf("Risk rules: assessing risk tier and volatility band.")
	assessment := risk.Assess(price, snap.RSI, snap.ATR)
	tr.logf("Risk assessment: %s", assessment.Tier)
	tr.logf("Volatility range: %.2f - %.2f", assessment.Band.Lower, assessment.Band.Upper)

	payload := &model.AnalysisPayload{
		Symbol:       series.Symbol,
		CurrentPrice: round2(price),
		TrendBias:    verdict.Label,
		RiskLevel:    assessment.Tier,
		RSI:          round2(snap.RSI),
		VolatilityRange: model.VolatilityBand{
			Lower: round2(assessment.Band.Lower),
			Upper: round2(assessment.Band.Upper),
		},
		ConfidenceScore: round2(verdict.Confidence),
	}
	tr.logf("Analysis complete.")
	return model.AnalysisReport{Steps: tr.steps, Analysis: payload}
}

func (p *Pipeline) snapshot(bars []model.OHLCV) (model.IndicatorSnapshot, error) {
	s := p.settings
	fast, err := calculator.EMA(bars, s.EMAFast)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("ema fast: %w", err)
	}
	slow, err := calculator.EMA(bars, s.EMASlow)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("ema slow: %w", err)
	}
	rsi, err := calculator.RSI(bars, s.RSIPeriod, s.Indicators)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("rsi: %w", err)
	}
	atr, err := calculator.ATR(bars, s.ATRPeriod, s.Indicators)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("atr: %w", err)
	}
	return model.IndicatorSnapshot{
		EMAFast: calculator.Latest(fast),
		EMASlow: calculator.Latest(slow),
		RSI:     calculator.Latest(rsi),
		ATR:     calculator.Latest(atr),
	}, nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func displaySymbol(symbol string) string {
	if symbol == "" {
		return "series"
	}
	return symbol
}
