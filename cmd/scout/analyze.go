package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"MarketScout/internal/model"
	"MarketScout/internal/recorder"
)

func analyzeCmd(opts *rootOptions) *cobra.Command {
	var asJSON, noRecord bool
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Analyze one symbol and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if noRecord {
				cfg.Database.SQLitePath = ""
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			symbol := strings.ToUpper(strings.TrimSpace(args[0]))
			rep := a.analyzer.AnalyzeSymbol(cmd.Context(), symbol)
			if err := a.recorder.RecordAnalysis(recorder.NewAnalysisRecord(symbol, "cli", rep)); err != nil {
				return fmt.Errorf("record analysis: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, rep); err != nil {
					return err
				}
			} else {
				printReport(out, rep)
			}
			if rep.Failed() {
				return errors.New(rep.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not store the outcome in the history database")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, rep model.AnalysisReport) {
	for i, step := range rep.Steps {
		fmt.Fprintf(w, "%2d. %s\n", i+1, step)
	}
	a := rep.Analysis
	if a == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Symbol:           %s\n", a.Symbol)
	fmt.Fprintf(w, "Current price:    %.2f\n", a.CurrentPrice)
	fmt.Fprintf(w, "Trend bias:       %s (confidence %.2f)\n", a.TrendBias, a.ConfidenceScore)
	fmt.Fprintf(w, "RSI:              %.2f\n", a.RSI)
	fmt.Fprintf(w, "Risk level:       %s\n", a.RiskLevel)
	fmt.Fprintf(w, "Volatility range: %.2f - %.2f\n", a.VolatilityRange.Lower, a.VolatilityRange.Upper)
}
