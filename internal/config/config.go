// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"copybot-go/internal/queue"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Queue holds the execution-queue knobs. Durations are milliseconds, the
// unit venue APIs and ops dashboards speak.
type Queue struct {
	MaxConcurrentPerVenue      int  `yaml:"max_concurrent_per_venue"`
	RateLimitPerVenue          int  `yaml:"rate_limit_per_venue"`
	DefaultDelayMs             int  `yaml:"default_delay_ms"`
	InstantModeForHighPriority bool `yaml:"instant_mode_for_high_priority"`
	MaxRetries                 int  `yaml:"max_retries"`
	RetryDelayMs               int  `yaml:"retry_delay_ms"`
	QueueTimeoutMs             int  `yaml:"queue_timeout_ms"`
	UltraLowLatency            bool `yaml:"ultra_low_latency"`
	FireAndForget              bool `yaml:"fire_and_forget"`
	SkipSlippageCheck          bool `yaml:"skip_slippage_check"`
	ResultTTLMs                int  `yaml:"result_ttl_ms"`
	ConfirmationTTLMs          int  `yaml:"confirmation_ttl_ms"`
	TickMs                     int  `yaml:"tick_ms"`
}

// Runtime converts the YAML knobs into the queue's runtime configuration.
func (q Queue) Runtime() queue.Config {
	return queue.Config{
		MaxConcurrentPerVenue:      q.MaxConcurrentPerVenue,
		RateLimitPerVenue:          q.RateLimitPerVenue,
		DefaultDelay:               time.Duration(q.DefaultDelayMs) * time.Millisecond,
		InstantModeForHighPriority: q.InstantModeForHighPriority,
		MaxRetries:                 q.MaxRetries,
		RetryDelay:                 time.Duration(q.RetryDelayMs) * time.Millisecond,
		QueueTimeout:               time.Duration(q.QueueTimeoutMs) * time.Millisecond,
		UltraLowLatency:            q.UltraLowLatency,
		FireAndForget:              q.FireAndForget,
		SkipSlippageCheck:          q.SkipSlippageCheck,
		ResultTTL:                  time.Duration(q.ResultTTLMs) * time.Millisecond,
		ConfirmationTTL:            time.Duration(q.ConfirmationTTLMs) * time.Millisecond,
		Tick:                       time.Duration(q.TickMs) * time.Millisecond,
	}
}

// Executor configures the venue executor wiring.
type Executor struct {
	Mode            string  `yaml:"mode"` // "sim" is the only built-in mode
	LatencyMs       int     `yaml:"latency_ms"`
	SlippageBps     float64 `yaml:"slippage_bps"`
	FailRate        float64 `yaml:"fail_rate"`
	PartialFillProb float64 `yaml:"partial_fill_prob"`
	MaxSlippageBps  float64 `yaml:"max_slippage_bps"`
}

// Confirmations configures the out-of-band fill event stream.
type Confirmations struct {
	WsURL string `yaml:"ws_url"`
}

// Risk encodes pre-enqueue guard-rails for copied intents.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
	MaxPendingPerUser   int     `yaml:"max_pending_per_user"`
}

// Signals configures the intent source for offline runs.
type Signals struct {
	Venue      string   `yaml:"venue"`
	Markets    []string `yaml:"markets"`
	IntervalMs int      `yaml:"interval_ms"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App           App           `yaml:"app"`
	Queue         Queue         `yaml:"queue"`
	Executor      Executor      `yaml:"executor"`
	Confirmations Confirmations `yaml:"confirmations"`
	Risk          Risk          `yaml:"risk"`
	Signals       Signals       `yaml:"signals"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
