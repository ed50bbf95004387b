//go:build !linux || !arm || disablegpio

package main

import "pushminder/button"

// newHAL returns the in-memory HAL on platforms without GPIO support.
func newHAL() (button.HAL, error) {
	return newStubHAL(), nil
}
