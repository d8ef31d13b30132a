// Package notify implements the in-process change-notification feed for the
// record store. Every committed mutation publishes a "something changed"
// signal for its entity; subscribers (SSE streams, tests) react by
// re-fetching the full collection. Signals carry no diff and no ordering
// guarantee relative to the write that produced them beyond "published after
// commit".
package notify

import "sync"

// Entities with a change feed.
const (
	EntityDeals     = "deals"
	EntityRetainers = "retainers"
)

// ValidEntity reports whether e names a subscribable entity.
func ValidEntity(e string) bool {
	return e == EntityDeals || e == EntityRetainers
}

// Hub fans out per-entity change signals to any number of subscribers.
// The zero value is not usable; construct with NewHub. Safe for concurrent
// use.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers interest in changes to entity and returns a signal
// channel plus a cancel function. The channel has a one-slot buffer and
// signals are coalesced: a subscriber that has not drained the pending
// signal will not queue further ones (it re-fetches the full collection
// anyway, so one pending signal is enough).
func (h *Hub) Subscribe(entity string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	set, ok := h.subs[entity]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[entity] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[entity]; ok {
			delete(set, ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish signals every subscriber of entity. Never blocks: subscribers
// with an undrained pending signal are skipped.
func (h *Hub) Publish(entity string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[entity] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the current subscriber count for entity.
func (h *Hub) Subscribers(entity string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[entity])
}
