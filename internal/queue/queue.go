package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"copybot-go/internal/metrics"
)

// sweepInterval is how often the completion tracker is scanned for stale
// results and confirmations.
const sweepInterval = 30 * time.Second

// Executor submits one order to a venue. Implementations must be safe for
// concurrent calls; the queue runs one dispatch goroutine per admitted order.
type Executor interface {
	Execute(ctx context.Context, order QueuedOrder) (ExecutionResult, error)
}

// Queue is the priority execution scheduler. Producers enqueue trade intents;
// the scheduler loop dispatches them in priority order under per-venue
// concurrency and rate limits, evicting intents that wait too long.
type Queue struct {
	log      zerolog.Logger
	executor Executor

	mu     sync.Mutex // guards cfg, store, paused
	cfg    Config
	store  *orderStore
	paused bool

	admission *admissionController
	tracker   *completionTracker
	stats     *statsAggregator

	kick     chan struct{}
	events   chan Event
	dispatch sync.WaitGroup
}

// New builds a queue around an executor. Zero fields in cfg fall back to
// DefaultConfig. The queue is inert until Run is called.
func New(executor Executor, cfg Config, log zerolog.Logger) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		log:       log,
		executor:  executor,
		cfg:       cfg,
		store:     newOrderStore(),
		admission: newAdmissionController(cfg.MaxConcurrentPerVenue, cfg.RateLimitPerVenue),
		tracker:   newCompletionTracker(),
		stats:     newStatsAggregator(),
		kick:      make(chan struct{}, 1),
		events:    make(chan Event, eventBuffer),
	}
}

// Run drives the scheduler loop until ctx is canceled, then waits for
// outstanding dispatches to settle.
func (q *Queue) Run(ctx context.Context) error {
	q.mu.Lock()
	tick := q.cfg.Tick
	q.mu.Unlock()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	sweeper := time.NewTicker(sweepInterval)
	defer sweeper.Stop()

	q.log.Info().Dur("tick", tick).Msg("execution queue started")
	for {
		select {
		case <-ctx.Done():
			q.dispatch.Wait()
			q.log.Info().Msg("execution queue stopped")
			return ctx.Err()
		case <-ticker.C:
			q.runTick(ctx)
		case <-q.kick:
			q.runTick(ctx)
		case <-sweeper.C:
			q.mu.Lock()
			resultTTL, confirmationTTL := q.cfg.ResultTTL, q.cfg.ConfirmationTTL
			q.mu.Unlock()
			q.tracker.sweep(time.Now(), resultTTL, confirmationTTL)
		}
	}
}

// Enqueue inserts one order and returns its id. Missing fields are defaulted:
// id (uuid), priority (normal), enqueue timestamp (now). The insert is
// synchronous; dispatch happens asynchronously on the scheduler loop.
func (q *Queue) Enqueue(order QueuedOrder) string {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Priority == "" {
		order.Priority = PriorityNormal
	}
	if order.QueuedAt.IsZero() {
		order.QueuedAt = time.Now()
	}
	order.Status = StatusPending

	q.mu.Lock()
	q.store.insert(order)
	q.mu.Unlock()

	q.stats.addEnqueued(1)
	metrics.OrdersEnqueued.WithLabelValues(order.Venue).Inc()
	q.emit(Event{Type: EventEnqueued, Order: order})
	q.kickLoop()
	return order.ID
}

// EnqueueBatch inserts orders in argument order and returns their ids.
func (q *Queue) EnqueueBatch(orders []QueuedOrder) []string {
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, q.Enqueue(order))
	}
	return ids
}

// ExecuteNow bypasses the queue entirely: no admission check, no queue
// membership, no completion tracking. The caller has already decided capacity
// is acceptable. The result feeds stats only and is not visible to
// WaitForOrder.
func (q *Queue) ExecuteNow(ctx context.Context, order QueuedOrder) ExecutionResult {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	start := time.Now()
	res := q.safeExecute(ctx, order)
	if res.Success {
		q.stats.addExecuted(time.Since(start))
		metrics.OrdersExecuted.WithLabelValues(order.Venue).Inc()
	} else {
		q.stats.addFailed()
		metrics.OrdersFailed.WithLabelValues(order.Venue).Inc()
	}
	metrics.ExecutionLatency.Observe(time.Since(start).Seconds())
	return res
}

// Cancel removes a still-pending order. It returns false when the order is
// unknown or already left the store; a second call on the same id has no
// further side effects.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	order, ok := q.store.removeByID(id)
	q.mu.Unlock()
	if !ok {
		return false
	}
	order.Status = StatusCancelled
	q.stats.addCancelled(1)
	q.emit(Event{Type: EventCancelled, Order: order})
	return true
}

// CancelAllForUser removes every pending order of a user and returns how many
// were cancelled. Orders already dispatching are not touched; there is no
// cancellation path to the venue executor.
func (q *Queue) CancelAllForUser(userID string) int {
	q.mu.Lock()
	removed := q.store.removeFunc(func(o QueuedOrder) bool { return o.UserID == userID })
	q.mu.Unlock()

	for _, order := range removed {
		order.Status = StatusCancelled
		q.emit(Event{Type: EventCancelled, Order: order})
	}
	q.stats.addCancelled(len(removed))
	return len(removed)
}

// GetOrder returns a pending order by id. Orders that dispatched, dropped, or
// were cancelled are no longer visible here.
func (q *Queue) GetOrder(id string) (QueuedOrder, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.get(id)
}

// GetOrdersForUser returns the user's pending orders in dispatch order.
func (q *Queue) GetOrdersForUser(userID string) []QueuedOrder {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []QueuedOrder
	for _, order := range q.store.snapshot() {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out
}

// GetStats returns a point-in-time activity snapshot.
func (q *Queue) GetStats() Stats {
	stats := q.stats.snapshot()
	q.mu.Lock()
	stats.Pending = q.store.len()
	q.mu.Unlock()
	stats.InFlight = q.admission.totalInFlight()
	return stats
}

// Pause stops new dispatches while leaving the store intact. Eviction pauses
// too, so orders do not time out while the operator has the queue held.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
	q.log.Info().Msg("queue paused")
}

// Resume re-enables dispatch and triggers the fast path.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	q.log.Info().Msg("queue resumed")
	q.kickLoop()
}

func (q *Queue) IsPaused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// Clear drops every pending order without events and returns the count.
func (q *Queue) Clear() int {
	q.mu.Lock()
	removed := q.store.removeFunc(func(QueuedOrder) bool { return true })
	q.mu.Unlock()
	return len(removed)
}

// UpdateConfig swaps the runtime knobs. Zero fields fall back to defaults.
// The tick interval applies from the next Run; everything else takes effect
// immediately.
func (q *Queue) UpdateConfig(cfg Config) {
	cfg = cfg.withDefaults()
	q.mu.Lock()
	q.cfg = cfg
	q.mu.Unlock()
	q.admission.setLimits(cfg.MaxConcurrentPerVenue, cfg.RateLimitPerVenue)
	q.kickLoop()
}

func (q *Queue) GetConfig() Config {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cfg
}

// WaitForOrder blocks until the order's execution result exists, returning
// nil once timeout elapses. An already-stored result returns immediately.
func (q *Queue) WaitForOrder(id string, timeout time.Duration) *ExecutionResult {
	return q.tracker.wait(id, timeout)
}

// ConfirmFill feeds an out-of-band fill event into the tracker. The
// fillConfirmed event fires whether or not a pending order matched; an
// unmatched id degrades to an informational notification, never an error.
func (q *Queue) ConfirmFill(confirmation FillConfirmation) {
	order, matched := q.tracker.confirmFill(confirmation)
	metrics.FillsConfirmed.WithLabelValues(confirmation.Venue, string(confirmation.Status)).Inc()
	if matched {
		q.log.Info().
			Str("id", order.ID).
			Str("venue_order_id", confirmation.OrderID).
			Str("status", string(confirmation.Status)).
			Float64("filled", confirmation.FilledSize).
			Msg("fill confirmed")
	} else {
		q.log.Debug().
			Str("venue_order_id", confirmation.OrderID).
			Msg("fill confirmation without pending order")
	}
	q.emit(Event{Type: EventFillConfirmed, Order: order, Confirmation: &confirmation})
}

// runTick performs one scheduler pass: evict timed-out orders, then dispatch
// admissible ones in priority order. Denied orders stay queued; the scan
// continues because a lower-priority order for another venue may still fit.
func (q *Queue) runTick(ctx context.Context) {
	q.mu.Lock()
	if q.paused {
		q.mu.Unlock()
		return
	}
	cfg := q.cfg
	now := time.Now()

	var expired []QueuedOrder
	if cfg.QueueTimeout > 0 {
		expired = q.store.removeFunc(func(o QueuedOrder) bool {
			return now.Sub(o.QueuedAt) > cfg.QueueTimeout
		})
	}

	var admitted []QueuedOrder
	for _, order := range q.store.snapshot() {
		if !q.admission.canExecute(order.Venue) {
			continue
		}
		q.admission.recordExecution(order.Venue)
		q.store.removeByID(order.ID)
		admitted = append(admitted, order)
	}
	q.mu.Unlock()

	for _, order := range expired {
		order.Status = StatusDropped
		q.stats.addDropped(1)
		metrics.OrdersDropped.WithLabelValues(order.Venue).Inc()
		q.log.Warn().
			Str("id", order.ID).
			Str("venue", order.Venue).
			Dur("age", now.Sub(order.QueuedAt)).
			Msg("order dropped")
		q.emit(Event{Type: EventDropped, Order: order, Reason: "timeout"})
	}

	for _, order := range admitted {
		order.Status = StatusDispatching
		metrics.OrdersInFlight.WithLabelValues(order.Venue).Inc()
		q.emit(Event{Type: EventDispatched, Order: order})
		q.dispatch.Add(1)
		go q.dispatchOrder(ctx, order, dispatchDelay(cfg, order.Priority))
	}
}

// dispatchDelay resolves the latency mode for one admitted order.
func dispatchDelay(cfg Config, priority Priority) time.Duration {
	if cfg.UltraLowLatency {
		return 0
	}
	if cfg.InstantModeForHighPriority && priority == PriorityHigh {
		return 0
	}
	return cfg.DefaultDelay
}

// dispatchOrder runs one executor call. The admission slot is released on
// every exit path and the fast path re-triggered, so a failing order never
// stalls admission for subsequent orders.
func (q *Queue) dispatchOrder(ctx context.Context, order QueuedOrder, delay time.Duration) {
	defer q.dispatch.Done()
	defer func() {
		q.admission.releaseExecution(order.Venue)
		metrics.OrdersInFlight.WithLabelValues(order.Venue).Dec()
		q.kickLoop()
	}()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			q.finishFailure(order, ExecutionResult{Success: false, AbortReason: "queue shutdown"})
			return
		}
	}

	start := time.Now()
	res := q.safeExecute(ctx, order)
	latency := time.Since(start)
	metrics.ExecutionLatency.Observe(latency.Seconds())

	q.mu.Lock()
	cfg := q.cfg
	q.mu.Unlock()

	if res.Success {
		order.Status = StatusSucceeded
		if !cfg.FireAndForget {
			q.tracker.storeResult(order.ID, res)
			if res.OrderID != "" && !order.DryRun {
				order.Status = StatusAwaitingConfirmation
				q.tracker.registerPending(res.OrderID, order, res)
			}
		}
		q.stats.addExecuted(latency)
		metrics.OrdersExecuted.WithLabelValues(order.Venue).Inc()
		q.log.Info().
			Str("id", order.ID).
			Str("venue", order.Venue).
			Str("market", order.Market).
			Dur("latency", latency).
			Msg("order executed")
		q.emit(Event{Type: EventExecuted, Order: order, Result: &res})
		return
	}

	if order.Attempts < cfg.MaxRetries {
		order.Attempts++
		q.stats.addRetried()
		q.log.Warn().
			Str("id", order.ID).
			Int("attempt", order.Attempts).
			Str("err", res.Err).
			Msg("dispatch failed, re-enqueueing")
		q.emit(Event{Type: EventRetrying, Order: order, Result: &res})
		q.requeueAfter(ctx, order, cfg.RetryDelay)
		return
	}

	q.finishFailure(order, res)
}

// finishFailure stores the terminal failure result and emits failed.
func (q *Queue) finishFailure(order QueuedOrder, res ExecutionResult) {
	order.Status = StatusFailed
	q.mu.Lock()
	fireAndForget := q.cfg.FireAndForget
	q.mu.Unlock()
	if !fireAndForget {
		q.tracker.storeResult(order.ID, res)
	}
	q.stats.addFailed()
	metrics.OrdersFailed.WithLabelValues(order.Venue).Inc()
	q.log.Warn().
		Str("id", order.ID).
		Str("venue", order.Venue).
		Str("err", res.Err).
		Str("abort", res.AbortReason).
		Msg("order failed")
	q.emit(Event{Type: EventFailed, Order: order, Result: &res})
}

// requeueAfter re-inserts a failed order once the retry delay passes. The
// original QueuedAt is kept so QueueTimeout still bounds the order's total
// lifetime across attempts.
func (q *Queue) requeueAfter(ctx context.Context, order QueuedOrder, delay time.Duration) {
	q.dispatch.Add(1)
	go func() {
		defer q.dispatch.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			q.finishFailure(order, ExecutionResult{Success: false, AbortReason: "queue shutdown"})
			return
		}
		order.Status = StatusPending
		q.mu.Lock()
		q.store.insert(order)
		q.mu.Unlock()
		q.kickLoop()
	}()
}

// safeExecute shields the scheduler from executor panics and folds returned
// errors into a failure result.
func (q *Queue) safeExecute(ctx context.Context, order QueuedOrder) (res ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Str("id", order.ID).Interface("panic", r).Msg("executor panicked")
			res = ExecutionResult{Success: false, Err: fmt.Sprintf("executor panic: %v", r)}
		}
	}()

	res, err := q.executor.Execute(ctx, order)
	if err != nil {
		return ExecutionResult{Success: false, Err: err.Error(), AbortReason: res.AbortReason}
	}
	return res
}

// kickLoop triggers the scheduler fast path without blocking.
func (q *Queue) kickLoop() {
	select {
	case q.kick <- struct{}{}:
	default:
	}
}
