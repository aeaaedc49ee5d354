// Package signal standardizes payloads shared between signal ingestion and
// the execution queue.
package signal

import (
	"time"

	"copybot-go/internal/queue"
)

// TradeIntent is a copy-trading signal derived from observed whale activity.
// The signal pipeline that produces these is external; this is its boundary
// shape.
type TradeIntent struct {
	Source     string // wallet or account the intent was copied from
	Venue      string
	Market     string
	Outcome    string // prediction-market outcome, e.g. "YES"
	TokenID    string
	Side       queue.Side
	Size       float64
	Price      float64
	Confidence float64 // 0..1, drives the priority tier
	Ts         time.Time
}

// Notional returns the intent's dollar value.
func (i TradeIntent) Notional() float64 {
	return i.Size * i.Price
}

// Order converts the intent into a queue order for the given user and
// strategy.
func (i TradeIntent) Order(userID, strategyID string) queue.QueuedOrder {
	return queue.QueuedOrder{
		UserID:     userID,
		Venue:      i.Venue,
		Market:     i.Market,
		Outcome:    i.Outcome,
		TokenID:    i.TokenID,
		Side:       i.Side,
		Size:       i.Size,
		Price:      i.Price,
		Priority:   PriorityFor(i.Confidence),
		QueuedAt:   i.Ts,
		StrategyID: strategyID,
	}
}

// PriorityFor maps signal confidence onto a dispatch tier.
func PriorityFor(confidence float64) queue.Priority {
	switch {
	case confidence >= 0.8:
		return queue.PriorityHigh
	case confidence >= 0.4:
		return queue.PriorityNormal
	default:
		return queue.PriorityLow
	}
}
