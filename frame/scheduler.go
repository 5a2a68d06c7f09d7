// Package frame paces rendering: a ring of frame slots guarded by fences, and
// a scheduler that drives each slot through acquire, record, submit and
// present, rebuilding the surface set when presentation goes stale.
package frame

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/texturedquad/gpu"
)

type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateRecording
	StateSubmitting
	StatePresenting
	StateStaleRecreate
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitting:
		return "submitting"
	case StatePresenting:
		return "presenting"
	case StateStaleRecreate:
		return "stale_recreate"
	}
	return "unknown"
}

// Window is what the scheduler needs from the platform window.
type Window interface {
	FramebufferSize() gpu.Extent2D
	ResizePending() bool
	ClearResize()
	PollEvents()
	WaitEvents()
	ShouldClose() bool
}

// SurfaceSet is the presentation surface set the scheduler renders into.
type SurfaceSet interface {
	Swapchain() gpu.Swapchain
	Framebuffer(index int) gpu.Framebuffer
	Extent() gpu.Extent2D
	Rebuild() error
}

// Recorder fills a slot's command buffer for one frame.
type Recorder interface {
	Record(buffer gpu.CommandBuffer, slot int, framebuffer gpu.Framebuffer, extent gpu.Extent2D) error
}

// DefaultTimeout bounds fence waits and image acquisition.
const DefaultTimeout = 10 * time.Second

// statsInterval is how many presented frames pass between stats log lines.
const statsInterval = 600

type Options struct {
	// Timeout bounds each fence wait and image acquire. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// Scheduler runs the frame loop. It is driven from a single goroutine.
type Scheduler struct {
	device   gpu.Device
	surface  gpu.Surface
	set      SurfaceSet
	ring     *Ring
	recorder Recorder
	window   Window
	timeout  time.Duration

	index         int
	state         State
	stale         bool
	pendingReason Reason
	stats         Stats
}

func NewScheduler(device gpu.Device, surface gpu.Surface, set SurfaceSet, ring *Ring, recorder Recorder, window Window, opts Options) *Scheduler {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Scheduler{
		device:   device,
		surface:  surface,
		set:      set,
		ring:     ring,
		recorder: recorder,
		window:   window,
		timeout:  timeout,
	}
}

// Index is the ring slot the next tick will use.
func (s *Scheduler) Index() int {
	return s.index
}

func (s *Scheduler) State() State {
	return s.state
}

// Stale reports whether a rebuild is owed. It stays set when the window
// closed while minimized and the rebuild was skipped.
func (s *Scheduler) Stale() bool {
	return s.stale
}

func (s *Scheduler) Stats() *Stats {
	return &s.stats
}

// MarkStale forces a rebuild at the start of the next tick.
func (s *Scheduler) MarkStale(reason Reason) {
	s.stale = true
	s.pendingReason = reason
}

// Run ticks until the window asks to close, ctx is cancelled, or a tick
// fails. Cancellation is only observed between ticks and is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		s.window.PollEvents()
		if s.window.ShouldClose() {
			return nil
		}

		err := s.Tick()
		if err != nil {
			return err
		}
	}
}

// Tick renders one frame. Staleness is absorbed here; any returned error is
// fatal and marked with one of the gpu error kinds.
func (s *Scheduler) Tick() error {
	if s.stale {
		return s.recreate(s.pendingReason)
	}

	s.stats.beginFrame()
	slot := s.ring.Slot(s.index)

	s.state = StateAcquiring
	signaled, err := s.device.WaitForFence(slot.InFlight, s.timeout)
	if err != nil {
		return gpu.Markf(err, gpu.ErrSubmit, "wait for frame %d fence", s.index)
	}
	if !signaled {
		return errors.Mark(errors.Newf("frame %d fence not signaled after %s", s.index, s.timeout), gpu.ErrGPUTimeout)
	}

	imageIndex, status, err := s.surface.AcquireNextImage(s.set.Swapchain(), s.timeout, slot.ImageAvailable)
	if err != nil {
		return gpu.Markf(err, gpu.ErrAcquire, "acquire image for frame %d", s.index)
	}

	suboptimal := false
	switch status {
	case gpu.StatusSuccess:
	case gpu.StatusSuboptimal:
		suboptimal = true
	case gpu.StatusOutOfDate:
		return s.recreate(ReasonAcquireOutOfDate)
	case gpu.StatusTimeout, gpu.StatusNotReady:
		return errors.Mark(errors.Newf("no swapchain image available after %s", s.timeout), gpu.ErrGPUTimeout)
	default:
		return errors.Mark(errors.Newf("acquire returned %s", status), gpu.ErrAcquire)
	}

	// Reset only after a usable acquire: an out of date acquire must leave
	// the fence signaled for the next wait.
	err = s.device.ResetFence(slot.InFlight)
	if err != nil {
		return gpu.Markf(err, gpu.ErrSubmit, "reset frame %d fence", s.index)
	}

	s.state = StateRecording
	err = s.device.ResetCommandBuffer(slot.CommandBuffer)
	if err != nil {
		return gpu.Markf(err, gpu.ErrRecord, "reset frame %d command buffer", s.index)
	}

	err = s.recorder.Record(slot.CommandBuffer, s.index, s.set.Framebuffer(imageIndex), s.set.Extent())
	if err != nil {
		return err
	}

	s.state = StateSubmitting
	err = s.device.Submit(s.device.GraphicsQueue(), gpu.SubmitInfo{
		WaitSemaphores:   []gpu.Semaphore{slot.ImageAvailable},
		WaitStages:       []gpu.PipelineStage{gpu.PipelineStageColorAttachmentOutput},
		CommandBuffers:   []gpu.CommandBuffer{slot.CommandBuffer},
		SignalSemaphores: []gpu.Semaphore{slot.RenderFinished},
		Fence:            slot.InFlight,
	})
	if err != nil {
		return gpu.Markf(err, gpu.ErrSubmit, "submit frame %d", s.index)
	}

	s.state = StatePresenting
	status, err = s.surface.Present(s.device.PresentQueue(), s.set.Swapchain(), imageIndex, slot.RenderFinished)
	if err != nil {
		return gpu.Markf(err, gpu.ErrPresent, "present image %d", imageIndex)
	}
	s.stats.endFrame()

	resized := s.window.ResizePending()
	if resized {
		s.window.ClearResize()
	}

	switch {
	case status == gpu.StatusOutOfDate:
		return s.recreate(ReasonPresentOutOfDate)
	case status != gpu.StatusSuccess && status != gpu.StatusSuboptimal:
		return errors.Mark(errors.Newf("present returned %s", status), gpu.ErrPresent)
	case status == gpu.StatusSuboptimal || suboptimal:
		return s.recreate(ReasonSuboptimal)
	case resized:
		return s.recreate(ReasonResize)
	}

	if s.stats.Presented%statsInterval == 0 {
		gpu.Logger().Debug("frame stats", "stats", &s.stats)
	}

	s.index = (s.index + 1) % s.ring.Len()
	s.state = StateIdle
	return nil
}

// recreate rebuilds the surface set. A minimized window stalls here until it
// has area again. If the window is closed during the stall the rebuild is
// skipped and the scheduler stays stale.
func (s *Scheduler) recreate(reason Reason) error {
	s.state = StateStaleRecreate
	s.stale = true
	s.pendingReason = reason

	stalled := false
	for s.window.FramebufferSize().IsZero() {
		if s.window.ShouldClose() {
			gpu.Logger().Info("window closed while minimized, skipping swapchain rebuild")
			return nil
		}
		if !stalled {
			stalled = true
			gpu.Logger().Info("framebuffer has no area, waiting for window events")
		}
		s.window.WaitEvents()
	}

	gpu.Logger().Info("rebuilding swapchain", "reason", reason.String())
	err := s.set.Rebuild()
	if err != nil {
		return errors.Wrapf(err, "rebuild swapchain after %s", reason)
	}

	s.stale = false
	s.stats.recreated(reason)
	s.state = StateIdle
	return nil
}
