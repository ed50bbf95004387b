package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventHubDropsForSlowSubscriber(t *testing.T) {
	h := newEventHub()
	ch := h.subscribe()
	for i := 0; i < cap(ch)+5; i++ {
		h.broadcast(ButtonEvent{Type: "pressed"})
	}
	assert.Len(t, ch, cap(ch))

	h.unsubscribe(ch)
	h.broadcast(ButtonEvent{Type: "released"})
	assert.Len(t, ch, cap(ch))
}
