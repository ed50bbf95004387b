package main

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// eventHub fans button events out to websocket subscribers.  A subscriber
// that falls behind loses events rather than stalling the poll loop.
type eventHub struct {
	mu   sync.Mutex
	subs map[chan ButtonEvent]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[chan ButtonEvent]struct{})}
}

func (h *eventHub) subscribe() chan ButtonEvent {
	ch := make(chan ButtonEvent, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *eventHub) unsubscribe(ch chan ButtonEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *eventHub) broadcast(ev ButtonEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.WithField("event", ev.ID).Warn("websocket subscriber full, event dropped")
		}
	}
}
