package queue

import "sort"

type storedOrder struct {
	order QueuedOrder
	seq   uint64 // insertion sequence, breaks QueuedAt ties deterministically
}

// orderStore holds pending orders sorted by descending priority weight, then
// ascending enqueue time, then insertion order. It is not internally locked;
// the owning Queue serializes access.
type orderStore struct {
	orders  []storedOrder
	nextSeq uint64
}

func newOrderStore() *orderStore {
	return &orderStore{}
}

func (s *orderStore) insert(order QueuedOrder) {
	s.orders = append(s.orders, storedOrder{order: order, seq: s.nextSeq})
	s.nextSeq++
	sort.SliceStable(s.orders, func(i, j int) bool {
		a, b := s.orders[i], s.orders[j]
		if wa, wb := a.order.Priority.Weight(), b.order.Priority.Weight(); wa != wb {
			return wa > wb
		}
		if !a.order.QueuedAt.Equal(b.order.QueuedAt) {
			return a.order.QueuedAt.Before(b.order.QueuedAt)
		}
		return a.seq < b.seq
	})
}

func (s *orderStore) get(id string) (QueuedOrder, bool) {
	for _, entry := range s.orders {
		if entry.order.ID == id {
			return entry.order, true
		}
	}
	return QueuedOrder{}, false
}

func (s *orderStore) removeByID(id string) (QueuedOrder, bool) {
	for i, entry := range s.orders {
		if entry.order.ID == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return entry.order, true
		}
	}
	return QueuedOrder{}, false
}

// removeFunc removes every order matching the predicate and returns the
// removed orders in store order.
func (s *orderStore) removeFunc(match func(QueuedOrder) bool) []QueuedOrder {
	var removed []QueuedOrder
	kept := s.orders[:0]
	for _, entry := range s.orders {
		if match(entry.order) {
			removed = append(removed, entry.order)
			continue
		}
		kept = append(kept, entry)
	}
	s.orders = kept
	return removed
}

// snapshot returns the pending orders in dispatch order. The scheduler scans
// this copy so removals during the scan cannot skip entries.
func (s *orderStore) snapshot() []QueuedOrder {
	out := make([]QueuedOrder, len(s.orders))
	for i, entry := range s.orders {
		out[i] = entry.order
	}
	return out
}

func (s *orderStore) len() int {
	return len(s.orders)
}
