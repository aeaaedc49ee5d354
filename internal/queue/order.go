// Package queue implements the priority execution queue that feeds trade
// intents to venue executors under per-venue concurrency and rate limits.
package queue

import "time"

// Side enumerates order directions accepted by the queue.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short order.
	Sell Side = "SELL"
)

// Priority ranks queued orders for dispatch. Higher tiers always dispatch
// first; within a tier, orders dispatch in enqueue order.
type Priority string

const (
	// PriorityHigh is dispatched before everything else.
	PriorityHigh Priority = "high"
	// PriorityNormal is the default tier.
	PriorityNormal Priority = "normal"
	// PriorityLow is dispatched only when no higher tier is admissible.
	PriorityLow Priority = "low"
)

// Weight returns the numeric rank used by the ordering comparator.
// Unknown tiers rank as normal.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Status tracks where an order sits in its lifecycle.
type Status string

const (
	StatusPending              Status = "pending"
	StatusDispatching          Status = "dispatching"
	StatusSucceeded            Status = "succeeded"
	StatusAwaitingConfirmation Status = "awaiting-confirmation"
	StatusConfirmed            Status = "confirmed"
	StatusConfirmationFailed   Status = "confirmation-failed"
	StatusFailed               Status = "failed"
	StatusDropped              Status = "dropped"
	StatusCancelled            Status = "cancelled"
)

// QueuedOrder is a trade intent waiting for dispatch. ID is unique and
// immutable once assigned; Priority and QueuedAt together define the total
// dispatch order.
type QueuedOrder struct {
	ID             string
	UserID         string
	Venue          string
	Market         string
	Side           Side
	Size           float64
	Price          float64
	Outcome        string  // prediction-market outcome, e.g. "YES"
	TokenID        string  // venue token/asset id when it differs from Market
	Leverage       float64 // 0 for spot / unlevered
	Priority       Priority
	QueuedAt       time.Time
	MaxSlippageBps float64
	DryRun         bool
	StrategyID     string
	Status         Status
	Attempts       int
}

// ExecutionResult is the outcome of one dispatch attempt, produced by the
// venue executor and stored keyed by the internal order id.
type ExecutionResult struct {
	Success      bool
	OrderID      string // venue-assigned id, empty when the venue returned none
	AvgFillPrice float64
	FilledSize   float64
	Err          string
	AbortReason  string
}

// ConfirmationStatus is the state reported by an out-of-band fill event.
type ConfirmationStatus string

const (
	ConfirmationMatched   ConfirmationStatus = "matched"
	ConfirmationMined     ConfirmationStatus = "mined"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	ConfirmationFailed    ConfirmationStatus = "failed"
)

// Terminal reports whether the status ends confirmation tracking.
func (s ConfirmationStatus) Terminal() bool {
	return s == ConfirmationConfirmed || s == ConfirmationFailed
}

// FillConfirmation is an asynchronous fill event pushed by an external
// exchange listener, keyed by the venue-assigned order id.
type FillConfirmation struct {
	OrderID    string
	Venue      string
	FilledSize float64
	AvgPrice   float64
	Status     ConfirmationStatus
	Timestamp  time.Time
	TxHash     string
}
