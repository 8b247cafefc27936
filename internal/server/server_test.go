package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScout/internal/agent"
	"MarketScout/internal/explorer"
	"MarketScout/internal/model"
	"MarketScout/internal/recorder"
)

func init() { gin.SetMode(gin.TestMode) }

type stubAnalyzer struct{}

func (stubAnalyzer) AnalyzeSymbol(_ context.Context, symbol string) model.AnalysisReport {
	switch symbol {
	case "NONE":
		return model.AnalysisReport{Steps: []string{"x"}, Error: "Data not found", Cause: agent.ErrDataUnavailable}
	case "SHORT":
		return model.AnalysisReport{Steps: []string{"x"}, Error: "Insufficient data", Cause: agent.ErrIndeterminateIndicator}
	}
	return model.AnalysisReport{
		Steps: []string{"Initiating analysis for " + symbol + "...", "Analysis complete."},
		Analysis: &model.AnalysisPayload{
			Symbol:          symbol,
			CurrentPrice:    100,
			TrendBias:       model.TrendBullish,
			RiskLevel:       model.RiskMediumHigh,
			RSI:             58.4,
			VolatilityRange: model.VolatilityBand{Lower: 92, Upper: 108},
			ConfidenceScore: 0.91,
		},
	}
}

type memRecorder struct {
	analyses     []*recorder.AnalysisRecord
	explorations []*recorder.ExplorationRecord
}

func (m *memRecorder) RecordAnalysis(rec *recorder.AnalysisRecord) error {
	m.analyses = append(m.analyses, rec)
	return nil
}

func (m *memRecorder) RecordExploration(rec *recorder.ExplorationRecord) error {
	m.explorations = append(m.explorations, rec)
	return nil
}

func (m *memRecorder) Recent(symbol string, limit int) ([]recorder.AnalysisRecord, error) {
	if symbol == "ERR" {
		return nil, errors.New("db locked")
	}
	var out []recorder.AnalysisRecord
	for i := len(m.analyses) - 1; i >= 0 && len(out) < limit; i-- {
		if m.analyses[i].Symbol == symbol {
			out = append(out, *m.analyses[i])
		}
	}
	return out, nil
}

func (m *memRecorder) Close() error { return nil }

func newTestServer(t *testing.T, rec *memRecorder) *Server {
	t.Helper()
	var picks []int
	s, err := New(Config{
		Analyzer:  stubAnalyzer{},
		Explorer:  explorer.New(stubAnalyzer{}, []string{"AAPL", "MSFT"}, 0),
		Recorder:  rec,
		Metrics:   http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "metric 1") }),
		Ready:     func() bool { return true },
		OnExplore: func(n int) { picks = append(picks, n) },
	})
	require.NoError(t, err)
	return s
}

func do(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNew_RequiresAnalyzer(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &memRecorder{})

	w := do(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","classifier_ready":true}`, w.Body.String())

	w = do(s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, "metric 1", w.Body.String())
}

func TestAnalyze(t *testing.T) {
	rec := &memRecorder{}
	s := newTestServer(t, rec)

	w := do(s, http.MethodGet, "/api/analyze/aapl", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	analysis := body["analysis"].(map[string]any)
	assert.Equal(t, "AAPL", analysis["symbol"])
	assert.Equal(t, "Medium-High (High Volatility)", analysis["risk_level"])
	assert.Equal(t, "Bullish", analysis["trend_bias"])
	assert.NotContains(t, body, "error")
	assert.Len(t, body["agent_steps"], 2)

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/analyze/NONE", nil).Code)
	w = do(s, http.MethodGet, "/api/analyze/SHORT", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Insufficient data"`)

	require.Len(t, rec.analyses, 3)
	assert.Equal(t, "http", rec.analyses[0].Trigger)
}

func TestExplore(t *testing.T) {
	rec := &memRecorder{}
	s := newTestServer(t, rec)

	w := do(s, http.MethodPost, "/api/explore", []byte(`{"savings":10000,"equity_pct":50,"risk_profile":"aggressive"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res model.Exploration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 5000.0, res.SavingsSummary.EquityAllocation.Amount)
	require.Len(t, res.AlignedStocks, 2)
	assert.Equal(t, model.RiskMediumHigh, res.AlignedStocks[0].RiskProfile)

	require.Len(t, rec.explorations, 1)
	assert.Equal(t, []string{"AAPL", "MSFT"}, rec.explorations[0].Picks)

	w = do(s, http.MethodPost, "/api/explore", []byte(`{"savings":10000,"equity_pct":50,"risk_profile":"balanced"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"aligned_stocks":[]`)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/api/explore", []byte(`{"savings":-5}`)).Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/api/explore", []byte(`not json`)).Code)
}

func TestHistory(t *testing.T) {
	rec := &memRecorder{}
	s := newTestServer(t, rec)
	do(s, http.MethodGet, "/api/analyze/KO", nil)
	do(s, http.MethodGet, "/api/analyze/KO", nil)
	do(s, http.MethodGet, "/api/analyze/PG", nil)

	w := do(s, http.MethodGet, "/api/history/ko?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Symbol  string                    `json:"symbol"`
		Records []recorder.AnalysisRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "KO", body.Symbol)
	assert.Len(t, body.Records, 1)

	w = do(s, http.MethodGet, "/api/history/NOPE", nil)
	assert.Contains(t, w.Body.String(), `"records":[]`)

	assert.Equal(t, http.StatusInternalServerError, do(s, http.MethodGet, "/api/history/ERR", nil).Code)
}
