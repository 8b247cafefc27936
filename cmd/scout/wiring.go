package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"MarketScout/internal/agent"
	"MarketScout/internal/calculator"
	"MarketScout/internal/classifier"
	"MarketScout/internal/collector"
	"MarketScout/internal/config"
	"MarketScout/internal/explorer"
	"MarketScout/internal/metrics"
	"MarketScout/internal/recorder"
)

// app holds the wired components shared by every command.
type app struct {
	cfg        *config.Config
	metrics    *metrics.Metrics
	classifier *classifier.Lazy
	pipeline   *agent.Pipeline
	analyzer   agent.Analyzer
	explorer   *explorer.Explorer
	recorder   recorder.Recorder
	redis      *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a := &app{cfg: cfg, metrics: metrics.NewMetrics(reg)}

	fetcher, err := a.buildFetcher(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Str("source", fetcher.Name()).Bool("cache", a.redis != nil).Msg("data source ready")

	smoothing, err := calculator.ParseSmoothing(cfg.Indicators.Smoothing)
	if err != nil {
		return nil, err
	}
	settings := agent.Settings{
		EMAFast:   cfg.Indicators.EMAFast,
		EMASlow:   cfg.Indicators.EMASlow,
		RSIPeriod: cfg.Indicators.RSIPeriod,
		ATRPeriod: cfg.Indicators.ATRPeriod,
		Indicators: calculator.Options{
			Smoothing:          smoothing,
			FallbackNeutralRSI: cfg.FallbackNeutralRSI(),
		},
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	a.classifier = classifier.NewLazy(classifier.Config{
		Seed:            cfg.Classifier.Seed,
		Trees:           cfg.Classifier.Trees,
		SamplesPerClass: cfg.Classifier.SamplesPerClass,
	})
	a.classifier.OnBootstrap = a.metrics.ObserveBootstrap

	col := collector.NewCollector(fetcher, cfg.DataSource.HistoryDays)
	a.pipeline = agent.NewPipeline(a.classifier, col, settings)
	a.analyzer = agent.Observe(a.pipeline, a.metrics)
	a.explorer = explorer.New(a.analyzer, cfg.Explorer.Candidates, cfg.Explorer.MaxPicks)
	a.recorder = openRecorder(cfg.Database.SQLitePath)
	return a, nil
}

// buildFetcher chains source -> rate limit and breaker -> redis cache -> metrics.
func (a *app) buildFetcher(ctx context.Context) (collector.Fetcher, error) {
	cfg := a.cfg
	var source collector.Fetcher
	switch cfg.DataSource.Source {
	case "yahoo":
		y := collector.NewYahooFetcher(cfg.Proxy)
		if cfg.DataSource.BaseURL != "" {
			y.BaseURL = cfg.DataSource.BaseURL
		}
		source = y
	case "rest":
		source = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "synthetic":
		source = &collector.SyntheticFetcher{Seed: cfg.DataSource.Seed}
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource.Source)
	}

	guarded := collector.NewGuardedFetcher(source, cfg.DataSource.RatePerSec, cfg.DataSource.Burst)
	guarded.OnStateChange = a.metrics.SetBreakerState
	var f collector.Fetcher = guarded

	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unavailable, price cache disabled")
			_ = client.Close()
		} else {
			a.redis = client
			f = collector.NewRedisCache(f, client, cfg.Cache.TTL)
		}
	}
	return collector.Instrument(f, a.metrics), nil
}

func openRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Warn().Err(err).Msg("close recorder")
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
