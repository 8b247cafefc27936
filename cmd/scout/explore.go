package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"MarketScout/internal/explorer"
	"MarketScout/internal/model"
	"MarketScout/internal/recorder"
)

func exploreCmd(opts *rootOptions) *cobra.Command {
	var (
		req        explorer.Request
		profile    string
		candidates []string
	)
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Illustrate one-year scenarios for a savings split and risk profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if len(candidates) > 0 {
				cfg.Explorer.Candidates = candidates
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			req.Profile = model.RiskProfile(profile)
			res, err := a.explorer.Explore(cmd.Context(), req)
			if err != nil {
				return err
			}
			picks := make([]string, len(res.AlignedStocks))
			for i, s := range res.AlignedStocks {
				picks[i] = s.Symbol
			}
			a.metrics.ObserveExploration(len(picks))
			if err := a.recorder.RecordExploration(&recorder.ExplorationRecord{
				Savings: req.Savings, EquityPct: req.EquityPct, Profile: req.Profile, Picks: picks,
			}); err != nil {
				return fmt.Errorf("record exploration: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Float64Var(&req.Savings, "savings", 10000, "total savings")
	cmd.Flags().Float64Var(&req.EquityPct, "equity-pct", 50, "share of savings for equities, in percent")
	cmd.Flags().StringVar(&profile, "profile", string(model.ProfileBalanced),
		"risk profile ("+strings.Join([]string{
			string(model.ProfileConservative), string(model.ProfileBalanced), string(model.ProfileAggressive),
		}, ", ")+")")
	cmd.Flags().StringSliceVar(&candidates, "candidates", nil, "override the candidate pool")
	return cmd
}
