package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"MarketScout/internal/server"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serveHTTP(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	return cmd
}

func (a *app) serveHTTP(ctx context.Context) error {
	if a.cfg.Classifier.WarmOnStart {
		a.classifier.Warm()
	}
	srv, err := server.New(server.Config{
		Addr:      a.cfg.Server.Addr,
		Analyzer:  a.analyzer,
		Explorer:  a.explorer,
		Recorder:  a.recorder,
		Metrics:   a.metrics.Handler(),
		Ready:     a.classifier.Ready,
		OnExplore: a.metrics.ObserveExploration,
	})
	if err != nil {
		return err
	}
	err = srv.Start(ctx)
	log.Info().Msg("http server stopped")
	return err
}
