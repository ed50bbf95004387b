//go:build linux && arm && !disablegpio && !rpio

// Raspberry Pi HAL using periph.io.  Build with the "rpio" tag to use
// go-rpio instead, or "disablegpio" to force the in-memory HAL.

package main

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"pushminder/button"
)

type periphHAL struct {
	mu   sync.Mutex
	pins map[button.Pin]gpio.PinIO
}

// newHAL initialises periph host drivers.  Returning an error here prevents
// the daemon from starting.
func newHAL() (button.HAL, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return &periphHAL{pins: make(map[button.Pin]gpio.PinIO)}, nil
}

func (p *periphHAL) lookup(pin button.Pin) gpio.PinIO {
	p.mu.Lock()
	defer p.mu.Unlock()
	if io, ok := p.pins[pin]; ok {
		return io
	}
	io := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if io != nil {
		p.pins[pin] = io
	}
	return io
}

// ConfigureInput puts a pin, addressed by BCM number, into input mode
// without touching its pull resistor.
func (p *periphHAL) ConfigureInput(pin button.Pin) error {
	io := p.lookup(pin)
	if io == nil {
		return fmt.Errorf("no GPIO%d on this host", pin)
	}
	return io.In(gpio.PullNoChange, gpio.NoEdge)
}

// ReadLevel returns true for a high level.  Unknown pins read low.
func (p *periphHAL) ReadLevel(pin button.Pin) bool {
	io := p.lookup(pin)
	if io == nil {
		return false
	}
	return io.Read() == gpio.High
}
