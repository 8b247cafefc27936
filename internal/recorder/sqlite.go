package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"MarketScout/internal/model"
)

// DefaultRecentLimit bounds Recent when no limit is given.
const DefaultRecentLimit = 20

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards and the HTTP history route read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id               TEXT PRIMARY KEY,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			origin           TEXT,
			current_price    REAL,
			trend_bias       TEXT,
			risk_level       TEXT,
			rsi              REAL,
			band_lower       REAL,
			band_upper       REAL,
			confidence_score REAL,
			error            TEXT,
			steps            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts ON analyses(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS explorations (
			id         TEXT PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			savings    REAL,
			equity_pct REAL,
			profile    TEXT,
			picks      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_explorations_ts ON explorations(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	if rec == nil || strings.TrimSpace(rec.Symbol) == "" {
		return errors.New("analysis record needs a symbol")
	}
	steps, err := json.Marshal(rec.Steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now()
	}

	var (
		price, rsi, lower, upper, conf sql.NullFloat64
		trend, tier                    sql.NullString
	)
	if a := rec.Analysis; a != nil {
		price = sql.NullFloat64{Float64: a.CurrentPrice, Valid: true}
		rsi = sql.NullFloat64{Float64: a.RSI, Valid: true}
		lower = sql.NullFloat64{Float64: a.VolatilityRange.Lower, Valid: true}
		upper = sql.NullFloat64{Float64: a.VolatilityRange.Upper, Valid: true}
		conf = sql.NullFloat64{Float64: a.ConfidenceScore, Valid: true}
		trend = sql.NullString{String: string(a.TrendBias), Valid: true}
		tier = sql.NullString{String: a.RiskLevel.String(), Valid: true}
	}

	_, err = r.db.Exec(`INSERT INTO analyses
		(id, timestamp, symbol, origin, current_price, trend_bias, risk_level,
		 rsi, band_lower, band_upper, confidence_score, error, steps)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Timestamp.UnixMilli(), rec.Symbol, rec.Trigger,
		price, trend, tier, rsi, lower, upper, conf,
		rec.Error, string(steps),
	)
	return err
}

func (r *SQLiteRecorder) RecordExploration(rec *ExplorationRecord) error {
	picks, err := json.Marshal(rec.Picks)
	if err != nil {
		return fmt.Errorf("encode picks: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now()
	}
	_, err = r.db.Exec(`INSERT INTO explorations
		(id, timestamp, savings, equity_pct, profile, picks)
		VALUES (?,?,?,?,?,?)`,
		rec.ID, rec.Timestamp.UnixMilli(), rec.Savings, rec.EquityPct,
		string(rec.Profile), string(picks),
	)
	return err
}

func (r *SQLiteRecorder) Recent(symbol string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := r.db.Query(`SELECT id, timestamp, symbol, origin, current_price, trend_bias,
		risk_level, rsi, band_lower, band_upper, confidence_score, error, steps
		FROM analyses WHERE symbol = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var (
			rec                            AnalysisRecord
			ts                             int64
			trigger, errText, steps        sql.NullString
			trend, tier                    sql.NullString
			price, rsi, lower, upper, conf sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Symbol, &trigger, &price, &trend,
			&tier, &rsi, &lower, &upper, &conf, &errText, &steps); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		rec.Trigger = trigger.String
		rec.Error = errText.String
		if steps.Valid && steps.String != "" {
			if err := json.Unmarshal([]byte(steps.String), &rec.Steps); err != nil {
				return nil, fmt.Errorf("decode steps: %w", err)
			}
		}
		if price.Valid {
			t, err := model.ParseRiskTier(tier.String)
			if err != nil {
				return nil, fmt.Errorf("decode risk level: %w", err)
			}
			rec.Analysis = &model.AnalysisPayload{
				Symbol:          rec.Symbol,
				CurrentPrice:    price.Float64,
				TrendBias:       model.Trend(trend.String),
				RiskLevel:       t,
				RSI:             rsi.Float64,
				VolatilityRange: model.VolatilityBand{Lower: lower.Float64, Upper: upper.Float64},
				ConfidenceScore: conf.Float64,
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
