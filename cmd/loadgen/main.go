// Binary loadgen floods the execution queue with synthetic orders to observe
// rate limiting, priority ordering, and load shedding under pressure.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"copybot-go/internal/executor"
	"copybot-go/internal/queue"
	"copybot-go/internal/util"
)

func main() {
	orders := flag.Int("orders", 200, "orders to enqueue")
	venues := flag.Int("venues", 2, "distinct venues")
	concurrency := flag.Int("concurrency", 3, "max concurrent dispatches per venue")
	rate := flag.Int("rate", 50, "dispatch starts per venue per second")
	timeoutMs := flag.Int("timeout-ms", 10000, "queue timeout")
	runFor := flag.Duration("run-for", 10*time.Second, "how long to let the queue drain")
	flag.Parse()

	log := util.NewLogger("loadgen", "warn")

	venueExec := executor.NewSim(log,
		executor.WithLatency(2*time.Millisecond),
		executor.WithSeed(1),
	)
	q := queue.New(venueExec, queue.Config{
		MaxConcurrentPerVenue: *concurrency,
		RateLimitPerVenue:     *rate,
		QueueTimeout:          time.Duration(*timeoutMs) * time.Millisecond,
	}, log)

	ctx, cancel := context.WithTimeout(context.Background(), *runFor)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = q.Run(ctx)
		close(done)
	}()

	priorities := []queue.Priority{queue.PriorityHigh, queue.PriorityNormal, queue.PriorityLow}
	batch := make([]queue.QueuedOrder, 0, *orders)
	for i := 0; i < *orders; i++ {
		batch = append(batch, queue.QueuedOrder{
			UserID:   "loadgen",
			Venue:    fmt.Sprintf("venue-%d", i % *venues),
			Market:   "synthetic",
			Side:     queue.Buy,
			Size:     10,
			Price:    0.5,
			Priority: priorities[i%len(priorities)],
		})
	}

	start := time.Now()
	q.EnqueueBatch(batch)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			stats := q.GetStats()
			fmt.Printf("t=%-4s executed=%-5d failed=%-4d dropped=%-4d pending=%-5d in-flight=%-3d avg=%s\n",
				time.Since(start).Truncate(time.Second), stats.Executed, stats.Failed,
				stats.Dropped, stats.Pending, stats.InFlight, stats.AvgLatency)
			if stats.Pending == 0 && stats.InFlight == 0 {
				cancel()
			}
		case <-done:
			stats := q.GetStats()
			fmt.Printf("final: enqueued=%d executed=%d failed=%d dropped=%d in %s\n",
				stats.Enqueued, stats.Executed, stats.Failed, stats.Dropped,
				time.Since(start).Truncate(time.Millisecond))
			return
		}
	}
}
