package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"MarketScout/internal/agent"
	"MarketScout/internal/model"
	"MarketScout/internal/notifier"
	"MarketScout/internal/recorder"
)

// Notifier delivers formatted messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the watchlist on a cron schedule and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  agent.Analyzer
	Notifier  Notifier // optional
	Recorder  recorder.Recorder
	Watchlist []string
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. A nil recorder records nothing.
func NewScheduler(ctx context.Context, a agent.Analyzer, n Notifier, rec recorder.Recorder, watchlist []string) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Analyzer:  a,
		Notifier:  n,
		Recorder:  rec,
		Watchlist: watchlist,
		Ctx:       ctx,
	}
}

// RegisterAll registers the daily watchlist task.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.watchlistTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunWatchlistNow executes the watchlist task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunWatchlistNow() {
	s.watchlistTask()
}

func (s *Scheduler) watchlistTask() {
	log.Info().Strs("watchlist", s.Watchlist).Msg("running watchlist task")
	s.trySend(s.runWatchlist(s.Ctx, "schedule"))
}

func (s *Scheduler) runWatchlist(ctx context.Context, trigger string) string {
	entries := make([]notifier.DigestEntry, 0, len(s.Watchlist))
	for _, symbol := range s.Watchlist {
		if ctx.Err() != nil {
			break
		}
		rep := s.AnalyzeAndRecord(ctx, symbol, trigger)
		entries = append(entries, notifier.DigestEntry{Symbol: symbol, Report: rep})
	}
	return notifier.FormatDigest(entries)
}

// AnalyzeAndRecord analyzes symbol and stores the outcome.
func (s *Scheduler) AnalyzeAndRecord(ctx context.Context, symbol, trigger string) model.AnalysisReport {
	rep := s.Analyzer.AnalyzeSymbol(ctx, symbol)
	if err := s.Recorder.RecordAnalysis(recorder.NewAnalysisRecord(symbol, trigger, rep)); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("record analysis")
	}
	return rep
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Telegram appends the bot name in groups: /analyze@scout_bot
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	switch name {
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze SYMBOL"
		}
		symbol := strings.ToUpper(fields[1])
		return notifier.FormatAnalysisReport(symbol, s.AnalyzeAndRecord(ctx, symbol, "telegram"))
	case "/watchlist":
		if len(s.Watchlist) == 0 {
			return "Watchlist is empty."
		}
		return s.runWatchlist(ctx, "telegram")
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Debug().Msg("no notifier configured, skipping message")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
