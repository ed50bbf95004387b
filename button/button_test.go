package button

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHAL replays a sequence of levels and counts calls.
type fakeHAL struct {
	configureErr error
	levels       []bool
	level        bool
	configures   int
	reads        int
}

func (f *fakeHAL) ConfigureInput(pin Pin) error {
	f.configures++
	return f.configureErr
}

func (f *fakeHAL) ReadLevel(pin Pin) bool {
	f.reads++
	if len(f.levels) > 0 {
		f.level = f.levels[0]
		f.levels = f.levels[1:]
	}
	return f.level
}

type recorder struct {
	events []Event
}

func (r *recorder) callback(ev Event) { r.events = append(r.events, ev) }

func TestInitSucceeds(t *testing.T) {
	hal := &fakeHAL{}
	var h Handle
	err := h.Init(&Config{Pin: 17, HAL: hal})
	require.NoError(t, err)
	assert.True(t, h.Initialized())
	assert.Equal(t, Released, h.LastState())
	assert.Equal(t, Pin(17), h.Pin())
	assert.False(t, h.ActiveLow())
	assert.Equal(t, 1, hal.configures)
	assert.Equal(t, 0, hal.reads)
}

func TestInitInvalidArguments(t *testing.T) {
	hal := &fakeHAL{}

	var nilHandle *Handle
	err := nilHandle.Init(&Config{HAL: hal})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	var h Handle
	err = h.Init(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.False(t, h.Initialized())

	err = h.Init(&Config{Pin: 4})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, Pin(0), h.Pin(), "config must not be copied on invalid argument")

	assert.Equal(t, 0, hal.configures)
	assert.Equal(t, 0, hal.reads)
}

func TestInitHardwareFailure(t *testing.T) {
	hal := &fakeHAL{configureErr: errors.New("no such line"), level: true}
	rec := &recorder{}
	var h Handle
	err := h.Init(&Config{Pin: 5, HAL: hal, Callback: rec.callback})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHardwareInit)
	assert.False(t, h.Initialized())
	assert.Equal(t, Pin(5), h.Pin())

	for i := 0; i < 3; i++ {
		h.Task()
	}
	assert.Equal(t, Released, h.Read())
	assert.Empty(t, rec.events)
	assert.Equal(t, 0, hal.reads)
}

func TestInitRetryAfterFailure(t *testing.T) {
	hal := &fakeHAL{configureErr: errors.New("busy")}
	var h Handle
	require.Error(t, h.Init(&Config{HAL: hal}))

	hal.configureErr = nil
	require.NoError(t, h.Init(&Config{HAL: hal}))
	assert.True(t, h.Initialized())
}

func TestReadPolarity(t *testing.T) {
	cases := []struct {
		name      string
		activeLow bool
		level     bool
		want      State
	}{
		{"active high, high", false, true, Pressed},
		{"active high, low", false, false, Released},
		{"active low, low", true, false, Pressed},
		{"active low, high", true, true, Released},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			hal := &fakeHAL{level: c.level}
			var h Handle
			require.NoError(t, h.Init(&Config{HAL: hal, ActiveLow: c.activeLow}))
			assert.Equal(t, c.activeLow, h.ActiveLow())
			assert.Equal(t, c.want, h.Read())
			assert.Equal(t, 1, hal.reads)
			assert.Equal(t, c.want, StateFromLevel(c.level, c.activeLow))
		})
	}
}

func TestReadWithoutInit(t *testing.T) {
	var nilHandle *Handle
	assert.Equal(t, Released, nilHandle.Read())
	assert.False(t, nilHandle.Initialized())
	assert.Equal(t, Released, nilHandle.LastState())
	assert.False(t, nilHandle.ActiveLow())
	nilHandle.Task()

	var h Handle
	assert.Equal(t, Released, h.Read())
	h.Task()
	assert.Equal(t, Released, h.LastState())
}

func TestTaskSequence(t *testing.T) {
	hal := &fakeHAL{levels: []bool{false, true, true, false}}
	rec := &recorder{}
	var h Handle
	require.NoError(t, h.Init(&Config{HAL: hal, Callback: rec.callback}))

	var perCall [][]Event
	for i := 0; i < 4; i++ {
		before := len(rec.events)
		h.Task()
		perCall = append(perCall, append([]Event(nil), rec.events[before:]...))
	}

	assert.Empty(t, perCall[0])
	assert.Equal(t, []Event{EventPressed}, perCall[1])
	assert.Empty(t, perCall[2])
	assert.Equal(t, []Event{EventReleased}, perCall[3])
	assert.Equal(t, Released, h.LastState())
}

func TestTaskActiveLowSequence(t *testing.T) {
	hal := &fakeHAL{levels: []bool{true, false, false, true}}
	rec := &recorder{}
	var h Handle
	require.NoError(t, h.Init(&Config{HAL: hal, ActiveLow: true, Callback: rec.callback}))
	for i := 0; i < 4; i++ {
		h.Task()
	}
	assert.Equal(t, []Event{EventPressed, EventReleased}, rec.events)
}

func TestTaskPrePressedAtInit(t *testing.T) {
	hal := &fakeHAL{level: true}
	rec := &recorder{}
	var h Handle
	require.NoError(t, h.Init(&Config{HAL: hal, Callback: rec.callback}))

	h.Task()
	assert.Equal(t, []Event{EventPressed}, rec.events)
	assert.Equal(t, Pressed, h.LastState())
}

func TestTaskStableLevelFiresOnce(t *testing.T) {
	hal := &fakeHAL{level: true}
	rec := &recorder{}
	var h Handle
	require.NoError(t, h.Init(&Config{HAL: hal, Callback: rec.callback}))
	for i := 0; i < 10; i++ {
		h.Task()
	}
	assert.Len(t, rec.events, 1)
	assert.Equal(t, 10, hal.reads)
}

func TestTaskWithoutCallbackTracksState(t *testing.T) {
	hal := &fakeHAL{level: true}
	var h Handle
	require.NoError(t, h.Init(&Config{HAL: hal}))
	h.Task()
	assert.Equal(t, Pressed, h.LastState())
}

func TestReinitResetsState(t *testing.T) {
	hal := &fakeHAL{level: true}
	rec := &recorder{}
	var h Handle
	require.NoError(t, h.Init(&Config{HAL: hal, Callback: rec.callback}))
	h.Task()
	require.Equal(t, Pressed, h.LastState())

	require.NoError(t, h.Init(&Config{HAL: hal, Callback: rec.callback}))
	assert.Equal(t, Released, h.LastState())
	h.Task()
	assert.Equal(t, []Event{EventPressed, EventPressed}, rec.events)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "pressed", Pressed.String())
	assert.Equal(t, "released", Released.String())
	assert.Equal(t, "pressed", EventPressed.String())
	assert.Equal(t, "released", EventReleased.String())
	assert.Equal(t, "State(7)", State(7).String())
}
