package gpufake

import "github.com/vkngwrapper/texturedquad/gpu"

// Window is a scripted window.
type Window struct {
	Size    gpu.Extent2D
	Closing bool

	// OnWaitEvents runs on every WaitEvents call, after the counter is bumped.
	// Tests use it to restore a minimized window.
	OnWaitEvents func(w *Window)
	// OnPollEvents runs on every PollEvents call. Tests use it to resize or
	// close the window after some number of frames.
	OnPollEvents func(w *Window)

	WaitEventsCalls int
	PollEventsCalls int
	ResizeClears    int

	resize bool
}

// NewWindow returns an 800x600 window.
func NewWindow() *Window {
	return &Window{Size: gpu.Extent2D{Width: 800, Height: 600}}
}

func (w *Window) FramebufferSize() gpu.Extent2D {
	return w.Size
}

// Resize changes the framebuffer size and raises the resize flag the way a
// platform callback would.
func (w *Window) Resize(width, height int) {
	w.Size = gpu.Extent2D{Width: width, Height: height}
	w.resize = true
}

func (w *Window) ResizePending() bool {
	return w.resize
}

func (w *Window) ClearResize() {
	w.ResizeClears++
	w.resize = false
}

func (w *Window) WaitEvents() {
	w.WaitEventsCalls++
	if w.OnWaitEvents != nil {
		w.OnWaitEvents(w)
	}
}

func (w *Window) PollEvents() {
	w.PollEventsCalls++
	if w.OnPollEvents != nil {
		w.OnPollEvents(w)
	}
}

func (w *Window) ShouldClose() bool {
	return w.Closing
}
