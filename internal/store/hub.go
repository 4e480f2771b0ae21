package store

import "sync"

type Collection string

const (
	CollectionAccounts     Collection = "accounts"
	CollectionTransactions Collection = "transactions"
	CollectionBudgets      Collection = "budgets"
)

type EventOp string

const (
	OpAdded   EventOp = "added"
	OpUpdated EventOp = "updated"
	OpRemoved EventOp = "removed"
)

// Event describes one committed change to a user's collection. Subscribers
// re-read the collection they care about; events carry ids, not payloads.
type Event struct {
	Collection Collection `json:"collection"`
	Op         EventOp    `json:"op"`
	ID         string     `json:"id"`
}

// Hub fans committed changes out to any number of passive observers, one
// subscription set per user. Publishing never blocks: a subscriber that
// stops draining its channel loses events instead of stalling writers.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan Event
	nextID int
}

const subscriberBuffer = 32

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers an observer for one user's changes. The returned
// cancel func must be called when the observer goes away.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan Event)
	}
	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[userID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if ch, ok := h.subs[userID][id]; ok {
			delete(h.subs[userID], id)
			close(ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers events to every subscriber of the user. Must only be
// called after the corresponding store write committed.
func (h *Hub) Publish(userID string, events ...Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[userID] {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
				// Slow subscriber: drop rather than block the writer.
			}
		}
	}
}

// Subscribers reports how many observers a user currently has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
