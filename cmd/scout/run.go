package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"MarketScout/internal/notifier"
	"MarketScout/internal/scheduler"
)

func runCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler, Telegram bot and HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			log.Info().Msg("MarketScout starting...")
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			var sched *scheduler.Scheduler
			if cfg.TelegramEnabled() {
				tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
				sched = scheduler.NewScheduler(ctx, a.analyzer, tn, a.recorder, cfg.Schedule.Watchlist)
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			} else {
				sched = scheduler.NewScheduler(ctx, a.analyzer, nil, a.recorder, cfg.Schedule.Watchlist)
				log.Warn().Msg("telegram not configured, digests will only be recorded")
			}

			if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			a.classifier.Warm()
			if cfg.Schedule.RunOnStart {
				log.Info().Msg("RUN_ON_START enabled, executing watchlist task now")
				go sched.RunWatchlistNow()
			}

			log.Info().Msg("MarketScout is running. Press Ctrl+C to stop.")
			err = a.serveHTTP(ctx)
			log.Info().Msg("MarketScout stopped")
			return err
		},
	}
}
