package main

// This file holds the desktop HAL.  It keeps pin levels in memory so the
// daemon can run without Raspberry Pi hardware; levels are changed through
// /api/simulate.  The real backends live in hal_periph.go and hal_rpio.go,
// and newHAL picks one per build.

import (
	"sync"

	"pushminder/button"
)

// stubHAL is a button.HAL backed by a map of levels.  Unset pins read low.
type stubHAL struct {
	mu         sync.Mutex
	levels     map[button.Pin]bool
	configured map[button.Pin]bool
}

func newStubHAL() *stubHAL {
	return &stubHAL{
		levels:     make(map[button.Pin]bool),
		configured: make(map[button.Pin]bool),
	}
}

func (s *stubHAL) ConfigureInput(pin button.Pin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configured[pin] = true
	return nil
}

func (s *stubHAL) ReadLevel(pin button.Pin) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[pin]
}

// SetLevel drives the simulated electrical level of pin.
func (s *stubHAL) SetLevel(pin button.Pin, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[pin] = high
}
