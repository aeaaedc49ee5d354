package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"copybot-go/internal/executor"
	"copybot-go/internal/queue"
	"copybot-go/internal/risk"
	sig "copybot-go/internal/signal"
)

// TestQueueFlowExecutesIntents wires the stub whale feed, risk limits, the
// execution queue, and the simulated venue executor end to end, including
// fill confirmations flowing back into the tracker.
func TestQueueFlowExecutesIntents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	confirmations := make(chan queue.FillConfirmation, 16)
	venueExec := executor.NewSim(zerolog.Nop(),
		executor.WithSeed(7),
		executor.WithLatency(time.Millisecond),
		executor.WithSlippageBps(5),
		executor.WithPartialFills(1),
		executor.WithConfirmations(confirmations),
		executor.WithGuard(executor.SlippageLimits{DefaultMaxBps: 100}),
	)

	q := queue.New(venueExec, queue.Config{
		MaxConcurrentPerVenue: 2,
		RateLimitPerVenue:     100,
		QueueTimeout:          5 * time.Second,
		Tick:                  time.Millisecond,
	}, zerolog.Nop())
	go func() { _ = q.Run(ctx) }()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-confirmations:
				q.ConfirmFill(c)
			}
		}
	}()

	feed := sig.NewStubFeed("polymarket", []string{"test-market"}, 5*time.Millisecond, 7)
	intents := make(chan sig.TradeIntent, 8)
	go func() { _ = feed.Run(ctx, intents) }()

	limits := risk.Limits{MaxNotionalPerTrade: 200, MaxPendingPerUser: 50}

	executed := 0
	for executed < 5 {
		select {
		case intent := <-intents:
			if !limits.Allow(intent.Notional(), len(q.GetOrdersForUser("it"))) {
				continue
			}
			id := q.Enqueue(intent.Order("it", "whale-copy"))

			res := q.WaitForOrder(id, 5*time.Second)
			if res == nil {
				t.Fatalf("order %s never resolved", id)
			}
			if !res.Success {
				t.Fatalf("unexpected failure: %+v", res)
			}
			if res.OrderID == "" {
				t.Fatalf("expected venue order id on live fill")
			}
			executed++
		case <-ctx.Done():
			t.Fatal("context expired before orders executed")
		}
	}

	// Partial fills settle through confirmations; give them a beat and check
	// the stored result was updated to the full size.
	time.Sleep(100 * time.Millisecond)
	stats := q.GetStats()
	if stats.Executed < 5 {
		t.Fatalf("expected at least 5 executions, got %d", stats.Executed)
	}
	if stats.Failed != 0 {
		t.Fatalf("expected no failures, got %d", stats.Failed)
	}
	if stats.AvgLatency <= 0 {
		t.Fatalf("expected positive rolling latency")
	}
}
