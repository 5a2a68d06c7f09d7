package window

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"
)

func TestResizeEventsRaiseFlag(t *testing.T) {
	for _, event := range []uint8{sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED} {
		w := &Window{}
		w.handle(&sdl.WindowEvent{Event: event})
		require.True(t, w.ResizePending(), "event %d", event)

		w.ClearResize()
		require.False(t, w.ResizePending())
	}

	w := &Window{}
	w.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MOVED})
	require.False(t, w.ResizePending())
}

func TestCloseEvents(t *testing.T) {
	testCases := []struct {
		name  string
		event sdl.Event
	}{
		{name: "quit", event: &sdl.QuitEvent{}},
		{name: "window close", event: &sdl.WindowEvent{Event: sdl.WINDOWEVENT_CLOSE}},
		{name: "escape", event: &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := &Window{}
			require.False(t, w.ShouldClose())
			w.handle(tc.event)
			require.True(t, w.ShouldClose())
		})
	}

	w := &Window{}
	w.handle(&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}})
	require.False(t, w.ShouldClose())
}
