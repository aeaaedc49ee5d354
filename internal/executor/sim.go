package executor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"copybot-go/internal/queue"
)

// Sim is a simulated venue executor: it fills orders with configurable
// latency, slippage, partial fills, and rejection rate, and can push
// synthetic fill confirmations the way a real exchange listener would. Safe
// for concurrent Execute calls.
type Sim struct {
	log   zerolog.Logger
	guard Guard

	latency         time.Duration
	slippageBps     float64
	failRate        float64
	partialFillProb float64
	confirmDelay    time.Duration

	mu  sync.Mutex
	rng *rand.Rand

	confirmations chan<- queue.FillConfirmation
}

// Option configures Sim construction parameters.
type Option func(*Sim)

// WithGuard installs a slippage guard consulted before every fill.
func WithGuard(guard Guard) Option {
	return func(s *Sim) { s.guard = guard }
}

// WithLatency sets the simulated venue round-trip time.
func WithLatency(d time.Duration) Option {
	return func(s *Sim) {
		if d > 0 {
			s.latency = d
		}
	}
}

// WithSlippageBps biases fill prices against the order by the given basis
// points.
func WithSlippageBps(bps float64) Option {
	return func(s *Sim) {
		if bps >= 0 {
			s.slippageBps = bps
		}
	}
}

// WithFailRate rejects roughly the given fraction of live orders.
func WithFailRate(rate float64) Option {
	return func(s *Sim) {
		if rate >= 0 && rate <= 1 {
			s.failRate = rate
		}
	}
}

// WithPartialFills makes roughly the given fraction of fills partial; the
// remainder arrives later as a fill confirmation.
func WithPartialFills(prob float64) Option {
	return func(s *Sim) {
		if prob >= 0 && prob <= 1 {
			s.partialFillProb = prob
		}
	}
}

// WithConfirmations wires a channel that receives synthetic fill
// confirmations for live orders.
func WithConfirmations(out chan<- queue.FillConfirmation) Option {
	return func(s *Sim) { s.confirmations = out }
}

// WithSeed makes the simulation deterministic.
func WithSeed(seed int64) Option {
	return func(s *Sim) { s.rng = rand.New(rand.NewSource(seed)) }
}

// NewSim constructs a simulated executor.
func NewSim(log zerolog.Logger, opts ...Option) *Sim {
	s := &Sim{
		log:          log,
		latency:      5 * time.Millisecond,
		confirmDelay: 20 * time.Millisecond,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute simulates submitting one order. Dry-run orders exercise the full
// path but return no venue order id, so the queue never tracks a
// confirmation for them.
func (s *Sim) Execute(ctx context.Context, order queue.QueuedOrder) (queue.ExecutionResult, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return queue.ExecutionResult{Success: false, AbortReason: "context canceled"}, ctx.Err()
		}
	}

	fillPrice := s.slip(order)
	if s.guard != nil {
		if abort := s.guard.Check(order, fillPrice); abort != nil {
			s.log.Warn().Str("id", order.ID).Str("reason", abort.AbortReason).Msg("slippage guard abort")
			return *abort, nil
		}
	}

	if order.DryRun {
		s.log.Info().Str("id", order.ID).Str("market", order.Market).Msg("dry-run fill")
		return queue.ExecutionResult{Success: true, AvgFillPrice: fillPrice, FilledSize: order.Size}, nil
	}

	if s.roll() < s.failRate {
		return queue.ExecutionResult{Success: false, Err: "venue rejected order"}, nil
	}

	filled := order.Size
	partial := s.roll() < s.partialFillProb
	if partial && order.Size > 0 {
		filled = order.Size * (0.25 + 0.5*s.roll())
	}

	venueOrderID := uuid.NewString()
	s.log.Info().
		Str("id", order.ID).
		Str("venue_order_id", venueOrderID).
		Str("market", order.Market).
		Float64("filled", filled).
		Float64("px", fillPrice).
		Msg("simulated fill")

	if s.confirmations != nil {
		s.scheduleConfirmation(order, venueOrderID, fillPrice, partial)
	}

	return queue.ExecutionResult{
		Success:      true,
		OrderID:      venueOrderID,
		AvgFillPrice: fillPrice,
		FilledSize:   filled,
	}, nil
}

// scheduleConfirmation emits a terminal confirmation after a short delay,
// topping up partial fills to the full size the way venue matching usually
// settles.
func (s *Sim) scheduleConfirmation(order queue.QueuedOrder, venueOrderID string, fillPrice float64, partial bool) {
	go func() {
		time.Sleep(s.confirmDelay)
		size := order.Size
		confirmation := queue.FillConfirmation{
			OrderID:    venueOrderID,
			Venue:      order.Venue,
			FilledSize: size,
			AvgPrice:   fillPrice,
			Status:     queue.ConfirmationConfirmed,
			Timestamp:  time.Now(),
			TxHash:     "",
		}
		if partial {
			confirmation.Status = queue.ConfirmationMatched
		}
		select {
		case s.confirmations <- confirmation:
		default:
			s.log.Debug().Str("venue_order_id", venueOrderID).Msg("confirmation channel full")
		}
	}()
}

// slip biases the fill price against the order side by slippageBps.
func (s *Sim) slip(order queue.QueuedOrder) float64 {
	if order.Price <= 0 {
		return order.Price
	}
	factor := s.slippageBps / 10_000
	if order.Side == queue.Sell {
		return order.Price * (1 - factor)
	}
	return order.Price * (1 + factor)
}

func (s *Sim) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
