package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"MarketScout/internal/model"
)

// AnalysisObserver receives the duration and error payload of every
// analysis; the payload is empty on success.
type AnalysisObserver interface {
	ObserveAnalysis(elapsed time.Duration, errPayload string)
}

// Analyzer analyzes one symbol end to end.
type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string) model.AnalysisReport
}

// ObservedAnalyzer reports each analysis to an observer and logs it.
type ObservedAnalyzer struct {
	inner    Analyzer
	observer AnalysisObserver
}

// Observe wraps inner. A nil observer only logs.
func Observe(inner Analyzer, obs AnalysisObserver) *ObservedAnalyzer {
	return &ObservedAnalyzer{inner: inner, observer: obs}
}

func (o *ObservedAnalyzer) AnalyzeSymbol(ctx context.Context, symbol string) model.AnalysisReport {
	start := time.Now()
	rep := o.inner.AnalyzeSymbol(ctx, symbol)
	elapsed := time.Since(start)
	if o.observer != nil {
		o.observer.ObserveAnalysis(elapsed, rep.Error)
	}
	if rep.Failed() {
		log.Warn().Err(rep.Cause).Str("symbol", symbol).Str("error", rep.Error).Dur("elapsed", elapsed).Msg("analysis failed")
	} else {
		log.Info().
			Str("symbol", symbol).
			Str("trend", string(rep.Analysis.TrendBias)).
			Stringer("risk", rep.Analysis.RiskLevel).
			Float64("confidence", rep.Analysis.ConfidenceScore).
			Dur("elapsed", elapsed).
			Msg("analysis complete")
	}
	return rep
}
