package queue

import (
	"sync"
	"time"
)

// waitPollInterval is the fallback poll cadence inside WaitForOrder. The
// waiter channel normally resolves first; the poll only covers results that
// land without a registered waiter (e.g. stored between the existence check
// and registration under a different code path).
const waitPollInterval = 5 * time.Millisecond

type trackedResult struct {
	result   ExecutionResult
	storedAt time.Time
}

// pendingConfirmation links a venue-assigned order id back to the original
// order and its tentative result until a terminal fill event arrives.
type pendingConfirmation struct {
	order     QueuedOrder
	result    ExecutionResult
	createdAt time.Time
}

// completionTracker stores dispatch results keyed by internal order id,
// supports blocking wait-for-result, and correlates late fill confirmations.
type completionTracker struct {
	mu      sync.Mutex
	results map[string]*trackedResult
	waiters map[string][]chan ExecutionResult
	pending map[string]*pendingConfirmation // keyed by venue order id
}

func newCompletionTracker() *completionTracker {
	return &completionTracker{
		results: make(map[string]*trackedResult),
		waiters: make(map[string][]chan ExecutionResult),
		pending: make(map[string]*pendingConfirmation),
	}
}

// storeResult records the outcome of a dispatch and resolves registered
// waiters. Exactly one result is stored per dispatch attempt.
func (t *completionTracker) storeResult(id string, res ExecutionResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.results[id] = &trackedResult{result: res, storedAt: time.Now()}
	t.notify(id, res)
}

func (t *completionTracker) getResult(id string) (ExecutionResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.results[id]
	if !ok {
		return ExecutionResult{}, false
	}
	return tracked.result, true
}

// registerPending starts confirmation tracking for a successfully submitted
// order under its venue-assigned id.
func (t *completionTracker) registerPending(venueOrderID string, order QueuedOrder, res ExecutionResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending[venueOrderID] = &pendingConfirmation{
		order:     order,
		result:    res,
		createdAt: time.Now(),
	}
}

// confirmFill correlates an out-of-band fill event to a pending order. When a
// match exists the stored result's fill fields are updated in place and any
// waiters resolve; terminal statuses end tracking and move the returned order
// to its confirmation-phase status. The bool reports whether a pending entry
// matched.
func (t *completionTracker) confirmFill(confirmation FillConfirmation) (QueuedOrder, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.pending[confirmation.OrderID]
	if !ok {
		return QueuedOrder{}, false
	}

	if confirmation.FilledSize > 0 {
		entry.result.FilledSize = confirmation.FilledSize
	}
	if confirmation.AvgPrice > 0 {
		entry.result.AvgFillPrice = confirmation.AvgPrice
	}
	switch {
	case confirmation.Status == ConfirmationFailed:
		entry.order.Status = StatusConfirmationFailed
		entry.result.Success = false
		entry.result.Err = "fill confirmation failed"
	case confirmation.Status.Terminal():
		entry.order.Status = StatusConfirmed
	}

	if tracked, exists := t.results[entry.order.ID]; exists {
		tracked.result = entry.result
	}
	t.notify(entry.order.ID, entry.result)

	if confirmation.Status.Terminal() {
		delete(t.pending, confirmation.OrderID)
	}
	return entry.order, true
}

// wait blocks until a result for id exists or timeout elapses, in which case
// it returns nil. Each call resolves exactly once.
func (t *completionTracker) wait(id string, timeout time.Duration) *ExecutionResult {
	t.mu.Lock()
	if tracked, ok := t.results[id]; ok {
		res := tracked.result
		t.mu.Unlock()
		return &res
	}
	ch := make(chan ExecutionResult, 1)
	t.waiters[id] = append(t.waiters[id], ch)
	t.mu.Unlock()

	defer t.removeWaiter(id, ch)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	poll := time.NewTicker(waitPollInterval)
	defer poll.Stop()

	for {
		select {
		case res := <-ch:
			return &res
		case <-poll.C:
			if res, ok := t.getResult(id); ok {
				return &res
			}
		case <-timer.C:
			return nil
		}
	}
}

// sweep drops unclaimed results and stale pending confirmations so a
// long-running process cannot grow these maps without bound.
func (t *completionTracker) sweep(now time.Time, resultTTL, confirmationTTL time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, tracked := range t.results {
		if now.Sub(tracked.storedAt) > resultTTL && len(t.waiters[id]) == 0 {
			delete(t.results, id)
		}
	}
	for venueOrderID, entry := range t.pending {
		if now.Sub(entry.createdAt) > confirmationTTL {
			delete(t.pending, venueOrderID)
		}
	}
}

func (t *completionTracker) pendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// notify resolves waiters for id. Caller must hold t.mu.
func (t *completionTracker) notify(id string, res ExecutionResult) {
	for _, ch := range t.waiters[id] {
		select {
		case ch <- res:
		default:
		}
	}
	delete(t.waiters, id)
}

func (t *completionTracker) removeWaiter(id string, ch chan ExecutionResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	waiters := t.waiters[id]
	for i, existing := range waiters {
		if existing == ch {
			t.waiters[id] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(t.waiters[id]) == 0 {
		delete(t.waiters, id)
	}
}
