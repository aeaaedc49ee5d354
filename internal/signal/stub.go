package signal

import (
	"context"
	"math/rand"
	"time"

	"copybot-go/internal/queue"
)

// StubFeed emits deterministic synthetic trade intents, useful for offline
// runs and load testing without a live whale-detection pipeline.
type StubFeed struct {
	venue    string
	markets  []string
	interval time.Duration
	rng      *rand.Rand
}

// NewStubFeed builds a synthetic intent source for the given venue/markets.
func NewStubFeed(venue string, markets []string, interval time.Duration, seed int64) *StubFeed {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &StubFeed{
		venue:    venue,
		markets:  markets,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Run pushes intents onto the provided channel until the context is
// canceled.
func (f *StubFeed) Run(ctx context.Context, out chan<- TradeIntent) error {
	if len(f.markets) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			intent := f.next(ts)
			select {
			case out <- intent:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (f *StubFeed) next(ts time.Time) TradeIntent {
	market := f.markets[f.rng.Intn(len(f.markets))]
	side := queue.Buy
	if f.rng.Float64() < 0.5 {
		side = queue.Sell
	}
	return TradeIntent{
		Source:     "0xwhale",
		Venue:      f.venue,
		Market:     market,
		Outcome:    "YES",
		Side:       side,
		Size:       10 + 90*f.rng.Float64(),
		Price:      0.05 + 0.9*f.rng.Float64(),
		Confidence: f.rng.Float64(),
		Ts:         ts,
	}
}
