package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "copybot-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App.LogLevel: %s", cfg.App.LogLevel)
	}
	if cfg.Queue.MaxConcurrentPerVenue != 1 {
		t.Fatalf("unexpected max concurrent: %d", cfg.Queue.MaxConcurrentPerVenue)
	}
	if cfg.Queue.RateLimitPerVenue != 50 {
		t.Fatalf("unexpected rate limit: %d", cfg.Queue.RateLimitPerVenue)
	}
	if cfg.Queue.DefaultDelayMs != 25 {
		t.Fatalf("unexpected default delay: %d", cfg.Queue.DefaultDelayMs)
	}
	if !cfg.Queue.InstantModeForHighPriority {
		t.Fatalf("expected instant mode enabled")
	}
	if cfg.Queue.MaxRetries != 2 || cfg.Queue.RetryDelayMs != 100 {
		t.Fatalf("unexpected retry settings: %d/%d", cfg.Queue.MaxRetries, cfg.Queue.RetryDelayMs)
	}
	if cfg.Queue.QueueTimeoutMs != 5000 {
		t.Fatalf("unexpected queue timeout: %d", cfg.Queue.QueueTimeoutMs)
	}
	if !cfg.Queue.SkipSlippageCheck {
		t.Fatalf("expected slippage check skipped")
	}
	if cfg.Executor.Mode != "sim" || cfg.Executor.FailRate != 0.5 {
		t.Fatalf("unexpected executor settings: %+v", cfg.Executor)
	}
	if cfg.Confirmations.WsURL != "ws://localhost:9200/fills" {
		t.Fatalf("unexpected confirmations url: %s", cfg.Confirmations.WsURL)
	}
	if cfg.Risk.MaxNotionalPerTrade != 100 || cfg.Risk.MaxPendingPerUser != 10 {
		t.Fatalf("unexpected risk limits: %+v", cfg.Risk)
	}
	if len(cfg.Signals.Markets) != 1 || cfg.Signals.Markets[0] != "test-market" {
		t.Fatalf("unexpected signal markets: %+v", cfg.Signals.Markets)
	}
}

func TestQueueRuntimeConversion(t *testing.T) {
	section := Queue{
		MaxConcurrentPerVenue: 2,
		RateLimitPerVenue:     20,
		DefaultDelayMs:        15,
		MaxRetries:            3,
		RetryDelayMs:          250,
		QueueTimeoutMs:        7000,
		ResultTTLMs:           60000,
		ConfirmationTTLMs:     90000,
		TickMs:                5,
		UltraLowLatency:       true,
	}

	rt := section.Runtime()
	if rt.MaxConcurrentPerVenue != 2 || rt.RateLimitPerVenue != 20 {
		t.Fatalf("limits not converted: %+v", rt)
	}
	if rt.DefaultDelay != 15*time.Millisecond {
		t.Fatalf("unexpected default delay: %s", rt.DefaultDelay)
	}
	if rt.RetryDelay != 250*time.Millisecond || rt.QueueTimeout != 7*time.Second {
		t.Fatalf("unexpected durations: %+v", rt)
	}
	if rt.ResultTTL != time.Minute || rt.ConfirmationTTL != 90*time.Second {
		t.Fatalf("unexpected TTLs: %+v", rt)
	}
	if rt.Tick != 5*time.Millisecond || !rt.UltraLowLatency {
		t.Fatalf("unexpected tick settings: %+v", rt)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := &Config{
		App:   App{Name: "copybot", LogLevel: "warn"},
		Queue: Queue{MaxConcurrentPerVenue: 4, RateLimitPerVenue: 40},
	}
	if err := Save(path, original); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.App.Name != "copybot" || loaded.Queue.MaxConcurrentPerVenue != 4 {
		t.Fatalf("round trip mangled config: %+v", loaded)
	}
}

func TestSaveNil(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "config.yaml"), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
