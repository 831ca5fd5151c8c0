package service

import (
	"sync"

	"github.com/assetra/tradecore/internal/domain"
)

// Subscription receives facade events on C. Slow consumers drop events
// rather than block the publishing operation.
type Subscription struct {
	C chan domain.Event
}

// hub fans facade events out to subscribers.
type hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*Subscription]struct{})}
}

func (h *hub) subscribe(buffer int) *Subscription {
	sub := &Subscription{C: make(chan domain.Event, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		close(sub.C)
	}
}

func (h *hub) broadcast(evt domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.C <- evt:
		default:
		}
	}
}
