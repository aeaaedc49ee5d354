package queue

import (
	"sync"
	"time"
)

// latencySamples bounds the rolling execution-latency window.
const latencySamples = 256

// Stats is a read-only snapshot of queue activity. It has no control-flow
// impact; admission decisions never consult it.
type Stats struct {
	Enqueued  uint64
	Executed  uint64
	Failed    uint64
	Dropped   uint64
	Cancelled uint64
	Retried   uint64
	Pending   int
	InFlight  int
	// AvgLatency and MaxLatency cover the last latencySamples dispatches.
	AvgLatency time.Duration
	MaxLatency time.Duration
}

type statsAggregator struct {
	mu        sync.Mutex
	enqueued  uint64
	executed  uint64
	failed    uint64
	dropped   uint64
	cancelled uint64
	retried   uint64
	latencies []time.Duration // ring buffer
	next      int
	filled    bool
}

func newStatsAggregator() *statsAggregator {
	return &statsAggregator{latencies: make([]time.Duration, latencySamples)}
}

func (s *statsAggregator) addEnqueued(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued += uint64(n)
}

func (s *statsAggregator) addExecuted(latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed++
	s.latencies[s.next] = latency
	s.next++
	if s.next == len(s.latencies) {
		s.next = 0
		s.filled = true
	}
}

func (s *statsAggregator) addFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

func (s *statsAggregator) addDropped(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped += uint64(n)
}

func (s *statsAggregator) addCancelled(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled += uint64(n)
}

func (s *statsAggregator) addRetried() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retried++
}

func (s *statsAggregator) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.next
	if s.filled {
		count = len(s.latencies)
	}
	var sum, max time.Duration
	for i := 0; i < count; i++ {
		sum += s.latencies[i]
		if s.latencies[i] > max {
			max = s.latencies[i]
		}
	}
	stats := Stats{
		Enqueued:   s.enqueued,
		Executed:   s.executed,
		Failed:     s.failed,
		Dropped:    s.dropped,
		Cancelled:  s.cancelled,
		Retried:    s.retried,
		MaxLatency: max,
	}
	if count > 0 {
		stats.AvgLatency = sum / time.Duration(count)
	}
	return stats
}
