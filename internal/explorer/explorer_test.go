package explorer

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScout/internal/model"
)

type stubAnalyzer struct {
	reports map[string]model.AnalysisReport
	calls   atomic.Int32
}

func (s *stubAnalyzer) AnalyzeSymbol(_ context.Context, symbol string) model.AnalysisReport {
	s.calls.Add(1)
	if rep, ok := s.reports[symbol]; ok {
		return rep
	}
	return model.AnalysisReport{Error: "Data not found"}
}

func ok(trend model.Trend, tier model.RiskTier, price, atr float64) model.AnalysisReport {
	return model.AnalysisReport{Analysis: &model.AnalysisPayload{
		CurrentPrice:    price,
		TrendBias:       trend,
		RiskLevel:       tier,
		RSI:             50,
		VolatilityRange: model.VolatilityBand{Lower: price - 2*atr, Upper: price + 2*atr},
		ConfidenceScore: 0.9,
	}}
}

func symbols(stocks []model.StockScenario) []string {
	out := make([]string, len(stocks))
	for i, s := range stocks {
		out[i] = s.Symbol
	}
	return out
}

func TestExplore_SavingsSplit(t *testing.T) {
	e := New(&stubAnalyzer{}, []string{"A"}, 0)
	res, err := e.Explore(context.Background(), Request{Savings: 10000, EquityPct: 60, Profile: "balanced"})
	require.NoError(t, err)

	s := res.SavingsSummary
	assert.Equal(t, 10000.0, s.TotalSavings)
	assert.Equal(t, 6000.0, s.EquityAllocation.Amount)
	assert.Equal(t, 60.0, s.EquityAllocation.Percentage)
	assert.Equal(t, 4000.0, s.SafeAllocation.Amount)
	assert.Equal(t, 40.0, s.SafeAllocation.Percentage)
	assert.Empty(t, res.AlignedStocks)
	assert.NotNil(t, res.AlignedStocks)
	assert.Equal(t, TransparencyNote, res.TransparencyNote)
}

func TestExplore_ProfileFiltering(t *testing.T) {
	a := &stubAnalyzer{reports: map[string]model.AnalysisReport{
		"LOW":  ok(model.TrendBullish, model.RiskLow, 100, 1),
		"MED":  ok(model.TrendNeutral, model.RiskMedium, 100, 2),
		"VOL":  ok(model.TrendBullish, model.RiskMediumHigh, 100, 4),
		"HOT":  ok(model.TrendBullish, model.RiskHigh, 100, 1),
		"BEAR": ok(model.TrendBearish, model.RiskLow, 100, 1),
		"FAIL": {Error: "Insufficient data"},
	}}
	pool := []string{"FAIL", "LOW", "MED", "VOL", "HOT", "BEAR"}
	e := New(a, pool, 0)

	cases := []struct {
		profile model.RiskProfile
		want    []string
	}{
		{model.ProfileConservative, []string{"LOW"}},
		{model.ProfileBalanced, []string{"LOW", "MED"}},
		{model.ProfileAggressive, []string{"LOW", "MED", "VOL", "HOT", "BEAR"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.profile), func(t *testing.T) {
			res, err := e.Explore(context.Background(), Request{Savings: 1000, EquityPct: 50, Profile: tc.profile})
			require.NoError(t, err)
			assert.Equal(t, tc.want, symbols(res.AlignedStocks))
		})
	}
}

func TestExplore_CapsPicksInPoolOrder(t *testing.T) {
	reports := map[string]model.AnalysisReport{}
	var pool []string
	for i := 0; i < 8; i++ {
		sym := fmt.Sprintf("S%d", i)
		pool = append(pool, sym)
		reports[sym] = ok(model.TrendBullish, model.RiskLow, 50, 0.5)
	}
	a := &stubAnalyzer{reports: reports}
	res, err := New(a, pool, 0).Explore(context.Background(), Request{Savings: 1000, EquityPct: 100, Profile: "aggressive"})
	require.NoError(t, err)

	assert.Equal(t, []string{"S0", "S1", "S2", "S3", "S4"}, symbols(res.AlignedStocks))
	assert.EqualValues(t, 8, a.calls.Load())
}

func TestExplore_Scenarios(t *testing.T) {
	a := &stubAnalyzer{reports: map[string]model.AnalysisReport{
		"AAPL": ok(model.TrendBullish, model.RiskMedium, 100, 2),
	}}
	res, err := New(a, []string{"AAPL"}, 0).Explore(context.Background(),
		Request{Savings: 10000, EquityPct: 60, Profile: model.ProfileBalanced})
	require.NoError(t, err)
	require.Len(t, res.AlignedStocks, 1)

	s := res.AlignedStocks[0]
	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, model.TrendBullish, s.Trend)
	assert.Equal(t, model.RiskMedium, s.RiskProfile)
	assert.Equal(t, 60.0, s.IllustrativeQuantity)
	assert.Equal(t, 6000.0, s.AllocatableAmount)

	// ATR 2 on price 100: annual vol 0.02*sqrt(252) ~ 0.3175.
	o := s.Outcomes
	assert.Equal(t, 131.75, o.Favorable.Price)
	assert.Equal(t, 31.7, o.Favorable.ValueChangePct)
	assert.Equal(t, 106.35, o.Neutral.Price)
	assert.Equal(t, 6.3, o.Neutral.ValueChangePct)
	assert.Equal(t, 68.25, o.Unfavorable.Price)
	assert.Equal(t, -31.7, o.Unfavorable.ValueChangePct)
}

func TestExplore_InvalidRequest(t *testing.T) {
	e := New(&stubAnalyzer{}, nil, 0)
	bad := []Request{
		{Savings: -1, EquityPct: 10},
		{Savings: 100, EquityPct: 120},
		{Savings: 100, EquityPct: 10, Profile: "reckless"},
	}
	for _, req := range bad {
		_, err := e.Explore(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
}

func TestExplore_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(&stubAnalyzer{}, nil, 0).Explore(ctx, Request{Savings: 100, EquityPct: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Zero(t, AnnualizedVolatility(0, 5))
	assert.InDelta(t, 0.31749, AnnualizedVolatility(100, 2), 1e-5)
}

func TestNew_Defaults(t *testing.T) {
	e := New(&stubAnalyzer{}, nil, 0)
	assert.Equal(t, DefaultCandidates, e.Candidates())
}
