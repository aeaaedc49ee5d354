// Package executor hosts venue order-submission implementations consumed by
// the execution queue, plus the slippage guard they consult before
// confirming a fill.
package executor

import (
	"fmt"

	"copybot-go/internal/queue"
)

// Guard validates a prospective fill price. A nil return means the fill is
// acceptable; otherwise the returned result carries the abort reason and is
// reported to the queue as the dispatch outcome.
type Guard interface {
	Check(order queue.QueuedOrder, fillPrice float64) *queue.ExecutionResult
}

// SlippageLimits is a basic Guard comparing the fill price against the
// order's target price in basis points.
type SlippageLimits struct {
	// DefaultMaxBps applies when the order carries no MaxSlippageBps.
	DefaultMaxBps float64
}

// Check rejects fills that deviate from the target price beyond the allowed
// slippage, in the unfavorable direction for the order's side.
func (l SlippageLimits) Check(order queue.QueuedOrder, fillPrice float64) *queue.ExecutionResult {
	if order.Price <= 0 {
		return nil // market order, nothing to compare against
	}
	maxBps := order.MaxSlippageBps
	if maxBps <= 0 {
		maxBps = l.DefaultMaxBps
	}
	if maxBps <= 0 {
		return nil
	}

	deviation := (fillPrice - order.Price) / order.Price * 10_000
	if order.Side == queue.Sell {
		deviation = -deviation
	}
	if deviation <= maxBps {
		return nil
	}
	return &queue.ExecutionResult{
		Success:     false,
		AbortReason: fmt.Sprintf("slippage %.1f bps exceeds limit %.1f bps", deviation, maxBps),
	}
}
