package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"MarketScout/internal/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "scout",
		Short:         "MarketScout: indicator-driven market state analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "configs/config.yaml", "config file (CONFIG_PATH overrides the default)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		analyzeCmd(opts),
		exploreCmd(opts),
		serveCmd(opts),
		runCmd(opts),
	)
	return root.ExecuteContext(ctx)
}

// load reads and validates the config, then applies the log level.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	path := o.configPath
	if v := os.Getenv("CONFIG_PATH"); v != "" && !cmd.Flags().Changed("config") {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	lvl, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return cfg, nil
}
