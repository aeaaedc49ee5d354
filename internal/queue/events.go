package queue

import "time"

// EventType labels queue lifecycle notifications.
type EventType string

const (
	EventEnqueued      EventType = "enqueued"
	EventDispatched    EventType = "dispatched"
	EventExecuted      EventType = "executed"
	EventFailed        EventType = "failed"
	EventDropped       EventType = "dropped"
	EventCancelled     EventType = "cancelled"
	EventRetrying      EventType = "retrying"
	EventFillConfirmed EventType = "fillConfirmed"
)

// Event is an informational notification. Delivery is best-effort: events are
// dropped rather than ever blocking the scheduler loop.
type Event struct {
	Type         EventType
	Order        QueuedOrder
	Result       *ExecutionResult
	Confirmation *FillConfirmation
	Reason       string
	Ts           time.Time
}

const eventBuffer = 256

// Events returns the queue's notification channel. Consumers that fall more
// than eventBuffer behind lose events.
func (q *Queue) Events() <-chan Event {
	return q.events
}

func (q *Queue) emit(event Event) {
	event.Ts = time.Now()
	select {
	case q.events <- event:
	default:
		q.log.Debug().Str("type", string(event.Type)).Msg("event buffer full, dropping")
	}
}
