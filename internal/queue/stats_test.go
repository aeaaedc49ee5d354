package queue

import (
	"testing"
	"time"
)

func TestStatsCounters(t *testing.T) {
	s := newStatsAggregator()
	s.addEnqueued(3)
	s.addExecuted(10 * time.Millisecond)
	s.addFailed()
	s.addDropped(2)
	s.addCancelled(1)
	s.addRetried()

	stats := s.snapshot()
	if stats.Enqueued != 3 || stats.Executed != 1 || stats.Failed != 1 ||
		stats.Dropped != 2 || stats.Cancelled != 1 || stats.Retried != 1 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
}

func TestStatsRollingLatency(t *testing.T) {
	s := newStatsAggregator()
	s.addExecuted(10 * time.Millisecond)
	s.addExecuted(30 * time.Millisecond)

	stats := s.snapshot()
	if stats.AvgLatency != 20*time.Millisecond {
		t.Fatalf("expected 20ms average, got %s", stats.AvgLatency)
	}
	if stats.MaxLatency != 30*time.Millisecond {
		t.Fatalf("expected 30ms max, got %s", stats.MaxLatency)
	}
}

func TestStatsLatencyWindowRolls(t *testing.T) {
	s := newStatsAggregator()
	for i := 0; i < latencySamples; i++ {
		s.addExecuted(time.Millisecond)
	}
	// The window is full; a large outlier must displace an old sample, not
	// grow the window.
	s.addExecuted(time.Second)

	stats := s.snapshot()
	if stats.Executed != latencySamples+1 {
		t.Fatalf("expected %d executed, got %d", latencySamples+1, stats.Executed)
	}
	if stats.MaxLatency != time.Second {
		t.Fatalf("expected outlier in window, got max %s", stats.MaxLatency)
	}
	if stats.AvgLatency <= time.Millisecond {
		t.Fatalf("expected average above 1ms, got %s", stats.AvgLatency)
	}
}
