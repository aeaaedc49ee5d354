package queue

import (
	"sync"
	"time"
)

// rateWindow is the trailing interval the per-venue rate limit applies to.
const rateWindow = time.Second

type venueState struct {
	inFlight int
	recent   []time.Time // dispatch starts inside the trailing window
}

// admissionController answers whether a venue may accept one more dispatch
// right now. All mutation is serialized behind its own mutex so the scheduler
// loop and dispatcher completion callbacks never race on the counters.
type admissionController struct {
	mu            sync.Mutex
	maxConcurrent int
	rateLimit     int
	venues        map[string]*venueState
}

func newAdmissionController(maxConcurrent, rateLimit int) *admissionController {
	return &admissionController{
		maxConcurrent: maxConcurrent,
		rateLimit:     rateLimit,
		venues:        make(map[string]*venueState),
	}
}

func (a *admissionController) setLimits(maxConcurrent, rateLimit int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maxConcurrent = maxConcurrent
	a.rateLimit = rateLimit
}

// canExecute reports whether venue is under both the concurrency cap and the
// trailing-window rate limit. Trimming the recent-dispatch list is a
// mutation: repeated calls rewrite the timestamp slice, so this is not a pure
// query.
func (a *admissionController) canExecute(venue string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.state(venue)
	if state.inFlight >= a.maxConcurrent {
		return false
	}
	state.trim(time.Now())
	return len(state.recent) < a.rateLimit
}

// recordExecution marks one dispatch start for venue.
func (a *admissionController) recordExecution(venue string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.state(venue)
	state.inFlight++
	state.recent = append(state.recent, time.Now())
}

// releaseExecution returns the admission slot. The counter never goes below
// zero, so an accidental double release cannot wedge future admission.
func (a *admissionController) releaseExecution(venue string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.state(venue)
	if state.inFlight > 0 {
		state.inFlight--
	}
}

// inFlight returns the current dispatch count for venue.
func (a *admissionController) inFlight(venue string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state(venue).inFlight
}

// totalInFlight sums in-flight dispatches across venues.
func (a *admissionController) totalInFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := 0
	for _, state := range a.venues {
		total += state.inFlight
	}
	return total
}

func (a *admissionController) state(venue string) *venueState {
	state := a.venues[venue]
	if state == nil {
		state = &venueState{}
		a.venues[venue] = state
	}
	return state
}

func (v *venueState) trim(now time.Time) {
	cutoff := now.Add(-rateWindow)
	idx := 0
	for idx < len(v.recent) && !v.recent[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		v.recent = v.recent[idx:]
	}
}
