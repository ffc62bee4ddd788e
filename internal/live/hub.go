// Package live turns one-shot store queries into feeds that re-emit a fresh
// snapshot whenever a relevant mutation is committed.
package live

import "sync"

// Topic identifies a collection whose mutations wake subscribers. Topics are
// bit flags and may be combined.
type Topic uint8

// Topics.
const (
	Containers Topic = 1 << iota
	Items

	All = Containers | Items
)

type subscriber struct {
	topics Topic
	notify chan struct{}
}

// Hub fans out change notifications to subscribers. Publish never blocks:
// each subscriber has a single pending slot, so bursts of mutations coalesce
// into one wake-up.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers interest in topics. The returned channel receives a
// value after any Publish overlapping topics; unsubscribe releases it and is
// safe to call more than once.
func (h *Hub) Subscribe(topics Topic) (notify <-chan struct{}, unsubscribe func()) {
	s := &subscriber{topics: topics, notify: make(chan struct{}, 1)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.notify, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			h.mu.Unlock()
		})
	}
}

// Publish wakes every subscriber interested in any of topics.
func (h *Hub) Publish(topics Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		if s.topics&topics == 0 {
			continue
		}
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
