// Package button polls a digital input through a HAL and reports
// pressed/released transitions to a callback.  There is no debounce
// filtering: the raw level returned by the HAL is taken as the truth.
//
// A Handle is not safe for concurrent use.  It is meant to be driven by a
// single polling loop; callers that share a handle between goroutines must
// provide their own locking.
package button

import (
	"errors"
	"fmt"
)

// Pin identifies a GPIO line.  The meaning of the number is up to the HAL
// (BCM numbering on the Raspberry Pi backends).
type Pin int

// State is the logical state of a button.
type State int

const (
	Released State = iota
	Pressed
)

func (s State) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event is passed to the callback on every state transition.
type Event int

const (
	EventPressed Event = iota
	EventReleased
)

func (e Event) String() string {
	switch e {
	case EventPressed:
		return "pressed"
	case EventReleased:
		return "released"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Callback receives transition events.  It runs on the goroutine calling
// Task.
type Callback func(Event)

// HAL is the hardware collaborator used by a Handle.
type HAL interface {
	// ConfigureInput puts the pin in input mode.  It is called once from Init.
	ConfigureInput(pin Pin) error
	// ReadLevel returns true when the pin is electrically high.
	ReadLevel(pin Pin) bool
}

var (
	// ErrInvalidArgument is returned by Init for a nil handle or config.
	ErrInvalidArgument = errors.New("button: invalid argument")
	// ErrHardwareInit wraps failures reported by HAL.ConfigureInput.
	ErrHardwareInit = errors.New("button: hardware init failed")
)

// Config is copied into the handle by Init and not referenced afterwards.
type Config struct {
	Pin       Pin
	ActiveLow bool     // pressed reads as a low level
	Callback  Callback // may be nil
	HAL       HAL
}

// Handle holds the configuration and the last observed state of one
// button.  The zero value is an uninitialised handle: Read reports
// Released and Task does nothing until Init succeeds.
type Handle struct {
	config      Config
	lastState   State
	initialized bool
}

// Init copies cfg into h and configures the pin as an input.  On a HAL
// failure the handle keeps the copied config but stays uninitialised, so a
// later Init may be attempted again.
func (h *Handle) Init(cfg *Config) error {
	if h == nil || cfg == nil || cfg.HAL == nil {
		return ErrInvalidArgument
	}

	h.config = *cfg
	h.lastState = Released
	h.initialized = false

	if err := h.config.HAL.ConfigureInput(h.config.Pin); err != nil {
		return fmt.Errorf("%w: pin %d: %v", ErrHardwareInit, h.config.Pin, err)
	}

	h.initialized = true
	return nil
}

// Read samples the pin and applies the polarity.  A nil or uninitialised
// handle reads as Released without touching the HAL, which means callers
// cannot tell "not ready" apart from "not pressed".
func (h *Handle) Read() State {
	if h == nil || !h.initialized {
		return Released
	}
	return StateFromLevel(h.config.HAL.ReadLevel(h.config.Pin), h.config.ActiveLow)
}

// Task polls the button once and fires the callback if the state differs
// from the previous poll.  The first poll after Init compares against
// Released, so a button held down at startup produces one EventPressed.
func (h *Handle) Task() {
	if h == nil || !h.initialized {
		return
	}

	current := h.Read()
	if current == h.lastState {
		return
	}
	h.lastState = current

	if h.config.Callback == nil {
		return
	}
	if current == Pressed {
		h.config.Callback(EventPressed)
	} else {
		h.config.Callback(EventReleased)
	}
}

// LastState returns the state recorded by the most recent Task call.
func (h *Handle) LastState() State {
	if h == nil {
		return Released
	}
	return h.lastState
}

// Initialized reports whether Init completed successfully.
func (h *Handle) Initialized() bool {
	return h != nil && h.initialized
}

// Pin returns the configured pin, or 0 for a nil handle.
func (h *Handle) Pin() Pin {
	if h == nil {
		return 0
	}
	return h.config.Pin
}

// ActiveLow returns the configured polarity.
func (h *Handle) ActiveLow() bool {
	return h != nil && h.config.ActiveLow
}

// StateFromLevel maps a raw pin level to a button state.  With activeLow a
// low level means pressed; otherwise a high level means pressed.
func StateFromLevel(level, activeLow bool) State {
	if level != activeLow {
		return Pressed
	}
	return Released
}
