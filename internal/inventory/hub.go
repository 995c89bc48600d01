package inventory

import (
	"log"
	"sync"

	"github.com/postcardmijo/food/internal/models"
)

const subscriptionBuffer = 16

// Subscription receives a full snapshot of one hall after every change
type Subscription struct {
	Hall string
	C    chan []models.InventoryItem
}

// Hub fans hall snapshots out to live subscribers
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}

	onChange func(delta int)
}

// NewHub creates a hub. onChange, if set, is told about subscriber churn.
func NewHub(onChange func(delta int)) *Hub {
	return &Hub{
		subs:     make(map[string]map[*Subscription]struct{}),
		onChange: onChange,
	}
}

// Subscribe registers interest in a hall
func (h *Hub) Subscribe(hall string) *Subscription {
	sub := &Subscription{Hall: hall, C: make(chan []models.InventoryItem, subscriptionBuffer)}

	h.mu.Lock()
	if h.subs[hall] == nil {
		h.subs[hall] = make(map[*Subscription]struct{})
	}
	h.subs[hall][sub] = struct{}{}
	h.mu.Unlock()

	if h.onChange != nil {
		h.onChange(1)
	}
	return sub
}

// Unsubscribe removes sub and closes its channel
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub.Hall][sub]
	if ok {
		delete(h.subs[sub.Hall], sub)
		if len(h.subs[sub.Hall]) == 0 {
			delete(h.subs, sub.Hall)
		}
		close(sub.C)
	}
	h.mu.Unlock()

	if ok && h.onChange != nil {
		h.onChange(-1)
	}
}

// Publish delivers a snapshot to every subscriber of hall. Slow subscribers
// miss the snapshot rather than block the writer.
func (h *Hub) Publish(hall string, items []models.InventoryItem) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[hall] {
		select {
		case sub.C <- items:
		default:
			log.Printf("inventory: subscriber buffer full for %s, dropping snapshot", hall)
		}
	}
}

// Subscribers returns the number of live subscribers to hall
func (h *Hub) Subscribers(hall string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[hall])
}
