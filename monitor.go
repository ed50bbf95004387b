package main

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"pushminder/button"
)

// EventSink receives every transition the monitor observes.
type EventSink func(ButtonEvent)

// MonitorStatus is the snapshot served by /api/status.
type MonitorStatus struct {
	Name        string    `json:"name"`
	Pin         int       `json:"pin"`
	ActiveLow   bool      `json:"active_low"`
	Initialized bool      `json:"initialized"`
	State       string    `json:"state"`
	Presses     int       `json:"presses"`
	LastChange  time.Time `json:"last_change,omitempty"`
}

// Monitor owns the button handle and polls it from a single goroutine.
// The handle is only touched by Init and Poll; status is copied out under
// mu so the HTTP server can read it concurrently.
type Monitor struct {
	settings ButtonSettings
	hal      button.HAL
	sink     EventSink
	handle   button.Handle

	mu     sync.Mutex
	status MonitorStatus
}

func NewMonitor(settings ButtonSettings, hal button.HAL, sink EventSink) *Monitor {
	return &Monitor{
		settings: settings,
		hal:      hal,
		sink:     sink,
		status: MonitorStatus{
			Name:      settings.Name,
			Pin:       settings.Pin,
			ActiveLow: settings.ActiveLow,
			State:     button.Released.String(),
		},
	}
}

// Init configures the button pin.  It may be called again after a failure.
func (m *Monitor) Init() error {
	err := m.handle.Init(&button.Config{
		Pin:       button.Pin(m.settings.Pin),
		ActiveLow: m.settings.ActiveLow,
		Callback:  m.onEvent,
		HAL:       m.hal,
	})
	m.mu.Lock()
	m.status.Initialized = m.handle.Initialized()
	m.status.ActiveLow = m.handle.ActiveLow()
	m.status.State = m.handle.LastState().String()
	m.mu.Unlock()
	return err
}

// Poll samples the button once.
func (m *Monitor) Poll() {
	m.handle.Task()
}

func (m *Monitor) onEvent(ev button.Event) {
	be := newButtonEvent(m.settings, ev)
	m.mu.Lock()
	m.status.State = m.handle.LastState().String()
	m.status.LastChange = be.Time
	if ev == button.EventPressed {
		m.status.Presses++
	}
	m.mu.Unlock()
	if m.sink != nil {
		m.sink(be)
	}
}

// Run polls the button every PollInterval until ctx is done.  An
// uninitialised handle is polled too; Task ignores it.
func (m *Monitor) Run(ctx context.Context) {
	interval := m.settings.PollInterval()
	log.WithFields(log.Fields{
		"button":   m.settings.Name,
		"pin":      m.settings.Pin,
		"interval": interval,
	}).Info("button monitor started")

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.WithField("button", m.settings.Name).Info("button monitor stopped")
			return
		case <-t.C:
			m.Poll()
		}
	}
}

// Status returns a copy of the current status.
func (m *Monitor) Status() MonitorStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
