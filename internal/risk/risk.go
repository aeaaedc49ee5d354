// Package risk encodes pre-enqueue guard-rails for copied trade intents.
package risk

// Limits bounds what a single intent may commit before it reaches the queue.
type Limits struct {
	MaxNotionalPerTrade float64
	MaxPendingPerUser   int
}

// Allow reports whether an intent with the given notional may be enqueued
// while the user already has pendingOrders queued. Zero-valued limits are
// unbounded.
func (l Limits) Allow(notional float64, pendingOrders int) bool {
	if l.MaxNotionalPerTrade > 0 && notional > l.MaxNotionalPerTrade {
		return false
	}
	if l.MaxPendingPerUser > 0 && pendingOrders >= l.MaxPendingPerUser {
		return false
	}
	return true
}
