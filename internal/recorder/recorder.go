package recorder

import (
	"time"

	"MarketScout/internal/model"
)

// AnalysisRecord is one stored analysis outcome. Exactly one of Analysis
// and Error is set, mirroring model.AnalysisReport.
type AnalysisRecord struct {
	ID        string                 `json:"id"`
	Symbol    string                 `json:"symbol"`
	Trigger   string                 `json:"trigger"` // "cli", "http", "schedule" or "telegram"
	Timestamp time.Time              `json:"timestamp"`
	Analysis  *model.AnalysisPayload `json:"analysis,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Steps     []string               `json:"agent_steps"`
}

// NewAnalysisRecord captures a report for storage.
func NewAnalysisRecord(symbol, trigger string, rep model.AnalysisReport) *AnalysisRecord {
	return &AnalysisRecord{
		Symbol:   symbol,
		Trigger:  trigger,
		Analysis: rep.Analysis,
		Error:    rep.Error,
		Steps:    rep.Steps,
	}
}

// ExplorationRecord is one stored scenario exploration.
type ExplorationRecord struct {
	ID        string
	Timestamp time.Time
	Savings   float64
	EquityPct float64
	Profile   model.RiskProfile
	Picks     []string
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(rec *AnalysisRecord) error
	RecordExploration(rec *ExplorationRecord) error
	// Recent returns up to limit records for symbol, newest first.
	Recent(symbol string, limit int) ([]AnalysisRecord, error)
	Close() error
}
