//go:build linux && arm && !disablegpio && rpio

// Raspberry Pi HAL using go-rpio's /dev/gpiomem register mapping.

package main

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"

	"pushminder/button"
)

type rpioHAL struct{}

func newHAL() (button.HAL, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio open: %w", err)
	}
	return rpioHAL{}, nil
}

func (rpioHAL) ConfigureInput(pin button.Pin) error {
	if pin < 0 || pin > 53 {
		return fmt.Errorf("no GPIO%d on this host", pin)
	}
	rpio.Pin(pin).Input()
	return nil
}

func (rpioHAL) ReadLevel(pin button.Pin) bool {
	return rpio.Pin(pin).Read() == rpio.High
}
