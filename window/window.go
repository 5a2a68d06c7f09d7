// Package window is the SDL2 window the renderer presents to.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/texturedquad/gpu"
)

type Options struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
}

// Window wraps an SDL window created for Vulkan. It must be used from the
// thread that created it.
type Window struct {
	window  *sdl.Window
	resized bool
	closing bool
}

func New(opts Options) (*Window, error) {
	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_VULKAN)
	if opts.Resizable {
		flags |= sdl.WINDOW_RESIZABLE
	}

	window, err := sdl.CreateWindow(opts.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(opts.Width), int32(opts.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return &Window{window: window}, nil
}

// SDL returns the underlying window for surface creation.
func (w *Window) SDL() *sdl.Window {
	return w.window
}

// FramebufferSize is the drawable size in pixels, or zero while minimized.
func (w *Window) FramebufferSize() gpu.Extent2D {
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return gpu.Extent2D{}
	}

	width, height := w.window.VulkanGetDrawableSize()
	return gpu.Extent2D{Width: int(width), Height: int(height)}
}

func (w *Window) ResizePending() bool {
	return w.resized
}

func (w *Window) ClearResize() {
	w.resized = false
}

// PollEvents handles every queued event without blocking.
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
}

// WaitEvents blocks for one event, then drains the queue.
func (w *Window) WaitEvents() {
	event := sdl.WaitEvent()
	if event != nil {
		w.handle(event)
	}
	w.PollEvents()
}

func (w *Window) ShouldClose() bool {
	return w.closing
}

func (w *Window) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.closing = true
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
			w.closing = true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
			w.resized = true
		case sdl.WINDOWEVENT_CLOSE:
			w.closing = true
		}
	}
}

func (w *Window) Destroy() {
	if w.window != nil {
		_ = w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
