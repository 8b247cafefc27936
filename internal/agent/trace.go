package agent

import (
	"fmt"

	"MarketScout/internal/model"
)

// trace collects the human-readable steps of one analysis.
type trace struct {
	steps []string
}

func (t *trace) logf(format string, args ...any) {
	t.steps = append(t.steps, fmt.Sprintf(format, args...))
}

func (t *trace) fail(cause error, message string) model.AnalysisReport {
	return model.AnalysisReport{Steps: t.steps, Error: message, Cause: cause}
}
