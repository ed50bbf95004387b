package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushminder/button"
)

type failingHAL struct{ reads int }

func (f *failingHAL) ConfigureInput(button.Pin) error { return errors.New("line busy") }
func (f *failingHAL) ReadLevel(button.Pin) bool       { f.reads++; return true }

func TestMonitorReportsTransitions(t *testing.T) {
	hal := newStubHAL()
	var got []ButtonEvent
	m := NewMonitor(ButtonSettings{Name: "Bell", Pin: 17}, hal, func(ev ButtonEvent) {
		got = append(got, ev)
	})
	require.NoError(t, m.Init())
	assert.True(t, hal.configured[17])

	st := m.Status()
	assert.True(t, st.Initialized)
	assert.Equal(t, "released", st.State)

	m.Poll()
	assert.Empty(t, got)

	hal.SetLevel(17, true)
	m.Poll()
	m.Poll()
	hal.SetLevel(17, false)
	m.Poll()

	require.Len(t, got, 2)
	assert.Equal(t, "pressed", got[0].Type)
	assert.True(t, got[0].Pressed())
	assert.Equal(t, "released", got[1].Type)
	assert.Equal(t, "Bell", got[0].Button)
	assert.Equal(t, 17, got[0].Pin)
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)

	st = m.Status()
	assert.Equal(t, "released", st.State)
	assert.Equal(t, 1, st.Presses)
	assert.False(t, st.LastChange.IsZero())
}

func TestMonitorActiveLowPrePressed(t *testing.T) {
	hal := newStubHAL()
	var got []ButtonEvent
	m := NewMonitor(ButtonSettings{Pin: 4, ActiveLow: true}, hal, func(ev ButtonEvent) {
		got = append(got, ev)
	})
	require.NoError(t, m.Init())

	// Unset stub pins read low, which is "pressed" for an active-low button.
	m.Poll()
	require.Len(t, got, 1)
	assert.Equal(t, "pressed", got[0].Type)
	assert.Equal(t, "pressed", m.Status().State)
	assert.True(t, m.Status().ActiveLow)
}

func TestMonitorInitFailure(t *testing.T) {
	hal := &failingHAL{}
	called := false
	m := NewMonitor(ButtonSettings{Pin: 3}, hal, func(ButtonEvent) { called = true })

	err := m.Init()
	assert.ErrorIs(t, err, button.ErrHardwareInit)
	assert.False(t, m.Status().Initialized)

	m.Poll()
	assert.False(t, called)
	assert.Equal(t, 0, hal.reads)
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	hal := newStubHAL()
	events := make(chan ButtonEvent, 4)
	m := NewMonitor(ButtonSettings{Pin: 5, PollIntervalMs: 1}, hal, func(ev ButtonEvent) {
		events <- ev
	})
	require.NoError(t, m.Init())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	hal.SetLevel(5, true)
	select {
	case ev := <-events:
		assert.Equal(t, "pressed", ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no event from polling loop")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
