package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Source      string  `yaml:"source"` // yahoo, rest or synthetic
		BaseURL     string  `yaml:"base_url"`
		APIKey      string  `yaml:"api_key"`
		HistoryDays int     `yaml:"history_days"`
		RatePerSec  float64 `yaml:"rate_per_sec"`
		Burst       int     `yaml:"burst"`
		Seed        int64   `yaml:"seed"` // synthetic source only
	} `yaml:"data_source"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Indicators struct {
		EMAFast            int    `yaml:"ema_fast"`
		EMASlow            int    `yaml:"ema_slow"`
		RSIPeriod          int    `yaml:"rsi_period"`
		ATRPeriod          int    `yaml:"atr_period"`
		FallbackNeutralRSI *bool  `yaml:"fallback_neutral_rsi"`
		Smoothing          string `yaml:"smoothing"`
	} `yaml:"indicators"`
	Classifier struct {
		Seed            int64 `yaml:"seed"`
		Trees           int   `yaml:"trees"`
		SamplesPerClass int   `yaml:"samples_per_class"`
		WarmOnStart     bool  `yaml:"warm_on_start"`
	} `yaml:"classifier"`
	Explorer struct {
		Candidates []string `yaml:"candidates"`
		MaxPicks   int      `yaml:"max_picks"`
	} `yaml:"explorer"`
	Schedule struct {
		DailyCron  string   `yaml:"daily_cron"`
		Watchlist  []string `yaml:"watchlist"`
		RunOnStart bool     `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Classifier.Seed = -1

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := []struct {
		env string
		dst *string
	}{
		{"TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken},
		{"TELEGRAM_CHAT_ID", &c.Telegram.ChatID},
		{"SCOUT_DATA_SOURCE", &c.DataSource.Source},
		{"SCOUT_DATA_BASE_URL", &c.DataSource.BaseURL},
		{"SCOUT_DATA_API_KEY", &c.DataSource.APIKey},
		{"REDIS_ADDR", &c.Cache.RedisAddr},
		{"REDIS_PASSWORD", &c.Cache.Password},
		{"SQLITE_PATH", &c.Database.SQLitePath},
		{"SCOUT_HTTP_ADDR", &c.Server.Addr},
		{"CRON_DAILY", &c.Schedule.DailyCron},
		{"LOG_LEVEL", &c.Log.Level},
		{"HTTPS_PROXY", &c.Proxy},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}
	if v := os.Getenv("SCOUT_WATCHLIST"); v != "" {
		c.Schedule.Watchlist = splitList(v)
	}
	if v := os.Getenv("SCOUT_CLASSIFIER_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SCOUT_CLASSIFIER_SEED: %w", err)
		}
		c.Classifier.Seed = seed
	}
	if v := os.Getenv("SCOUT_FALLBACK_NEUTRAL_RSI"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCOUT_FALLBACK_NEUTRAL_RSI: %w", err)
		}
		c.Indicators.FallbackNeutralRSI = &b
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.Schedule.RunOnStart = v == "true" || v == "1"
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Source == "" {
		c.DataSource.Source = "yahoo"
	}
	if c.DataSource.HistoryDays == 0 {
		c.DataSource.HistoryDays = 126
	}
	if c.DataSource.RatePerSec == 0 {
		c.DataSource.RatePerSec = 2
	}
	if c.DataSource.Burst == 0 {
		c.DataSource.Burst = 4
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.Indicators.EMAFast == 0 {
		c.Indicators.EMAFast = 20
	}
	if c.Indicators.EMASlow == 0 {
		c.Indicators.EMASlow = 50
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.ATRPeriod == 0 {
		c.Indicators.ATRPeriod = 14
	}
	if c.Indicators.FallbackNeutralRSI == nil {
		on := true
		c.Indicators.FallbackNeutralRSI = &on
	}
	if c.Indicators.Smoothing == "" {
		c.Indicators.Smoothing = "simple"
	}
	if c.Classifier.Seed < 0 {
		c.Classifier.Seed = 42
	}
	if c.Classifier.Trees == 0 {
		c.Classifier.Trees = 100
	}
	if c.Classifier.SamplesPerClass == 0 {
		c.Classifier.SamplesPerClass = 1000
	}
	if c.Explorer.MaxPicks == 0 {
		c.Explorer.MaxPicks = 5
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 21 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/market_scout.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that the settings are usable. Telegram is optional but
// needs both token and chat id when configured.
func (c *Config) Validate() error {
	switch c.DataSource.Source {
	case "yahoo", "synthetic":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest source")
		}
	default:
		return fmt.Errorf("data_source.source must be yahoo, rest or synthetic, got %q", c.DataSource.Source)
	}
	if c.DataSource.HistoryDays <= 0 {
		return fmt.Errorf("data_source.history_days must be positive")
	}
	minBars := max(c.Indicators.RSIPeriod, c.Indicators.ATRPeriod)
	if c.DataSource.HistoryDays < minBars {
		return fmt.Errorf("data_source.history_days (%d) is shorter than the longest indicator window (%d)",
			c.DataSource.HistoryDays, minBars)
	}
	if c.Indicators.EMAFast <= 0 || c.Indicators.EMASlow <= 0 ||
		c.Indicators.RSIPeriod <= 0 || c.Indicators.ATRPeriod <= 0 {
		return fmt.Errorf("indicators windows must be positive")
	}
	if c.Indicators.Smoothing != "simple" && c.Indicators.Smoothing != "wilder" {
		return fmt.Errorf("indicators.smoothing must be simple or wilder, got %q", c.Indicators.Smoothing)
	}
	if c.Classifier.Trees <= 0 || c.Classifier.SamplesPerClass <= 0 {
		return fmt.Errorf("classifier.trees and classifier.samples_per_class must be positive")
	}
	if c.Explorer.MaxPicks < 0 {
		return fmt.Errorf("explorer.max_picks must not be negative")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.DailyCron); err != nil {
		return fmt.Errorf("schedule.daily_cron: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether a bot is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// FallbackNeutralRSI returns the effective RSI fallback flag.
func (c *Config) FallbackNeutralRSI() bool {
	return c.Indicators.FallbackNeutralRSI == nil || *c.Indicators.FallbackNeutralRSI
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
