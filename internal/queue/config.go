package queue

import "time"

// Config collects the runtime knobs of the execution queue. Zero values are
// replaced by defaults in withDefaults, so a partially populated Config is
// safe to pass to New and UpdateConfig.
type Config struct {
	// MaxConcurrentPerVenue caps in-flight dispatches per venue.
	MaxConcurrentPerVenue int
	// RateLimitPerVenue caps dispatch starts per venue in a trailing second.
	RateLimitPerVenue int
	// DefaultDelay is applied before each dispatch unless a latency mode
	// overrides it.
	DefaultDelay time.Duration
	// InstantModeForHighPriority forces zero delay for high-priority orders.
	InstantModeForHighPriority bool
	// MaxRetries re-enqueues a failed dispatch up to this many extra attempts.
	MaxRetries int
	// RetryDelay is the pause before a failed order re-enters the store.
	RetryDelay time.Duration
	// QueueTimeout evicts orders that waited longer than this without
	// dispatching. Negative disables eviction; zero means the default.
	QueueTimeout time.Duration
	// UltraLowLatency schedules dispatch immediately, ignoring DefaultDelay.
	UltraLowLatency bool
	// FireAndForget skips result storage and confirmation tracking; outcomes
	// still count toward stats.
	FireAndForget bool
	// SkipSlippageCheck is surfaced to executor wiring; the queue itself does
	// not consult the slippage guard.
	SkipSlippageCheck bool
	// ResultTTL bounds how long unclaimed execution results are retained.
	ResultTTL time.Duration
	// ConfirmationTTL bounds how long a pending confirmation without a
	// terminal fill event is retained.
	ConfirmationTTL time.Duration
	// Tick is the scheduler loop interval.
	Tick time.Duration
}

// DefaultConfig returns the settings used when callers pass a zero Config.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentPerVenue: 3,
		RateLimitPerVenue:     10,
		RetryDelay:            500 * time.Millisecond,
		QueueTimeout:          30 * time.Second,
		ResultTTL:             10 * time.Minute,
		ConfirmationTTL:       10 * time.Minute,
		Tick:                  10 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxConcurrentPerVenue <= 0 {
		c.MaxConcurrentPerVenue = def.MaxConcurrentPerVenue
	}
	if c.RateLimitPerVenue <= 0 {
		c.RateLimitPerVenue = def.RateLimitPerVenue
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.QueueTimeout == 0 {
		c.QueueTimeout = def.QueueTimeout
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = def.ResultTTL
	}
	if c.ConfirmationTTL <= 0 {
		c.ConfirmationTTL = def.ConfirmationTTL
	}
	if c.Tick <= 0 {
		c.Tick = def.Tick
	}
	return c
}
