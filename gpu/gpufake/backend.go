// Package gpufake is an in-memory gpu backend for tests. The device completes
// every submission immediately, keeps a log of calls, counts live handles and
// records misuse of fences, semaphores and command buffers as violations
// instead of failing, so tests can assert on them.
package gpufake

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/texturedquad/gpu"
)

type Kind string

const (
	KindFence         Kind = "fence"
	KindSemaphore     Kind = "semaphore"
	KindCommandBuffer Kind = "command_buffer"
	KindSwapchain     Kind = "swapchain"
	KindImageView     Kind = "image_view"
	KindFramebuffer   Kind = "framebuffer"
	KindRenderPass    Kind = "render_pass"
	KindPipeline      Kind = "pipeline"
)

// Handle is every resource the fake hands out.
type Handle struct {
	Kind Kind
	ID   int

	backend   *Backend
	destroyed bool

	// fences and semaphores
	signaled bool

	// command buffers
	recording    bool
	pendingFence *Handle
	commands     []string

	// swapchains
	Info     gpu.SwapchainCreateInfo
	images   []gpu.Image
	acquired int
}

func (h *Handle) Destroy() {
	h.backend.destroy(h)
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Kind, h.ID)
}

// Image is a swapchain image.
type Image struct {
	Swapchain int
	Index     int
}

// Queue is a named queue.
type Queue struct {
	Name string
}

// Backend implements gpu.Device, gpu.Surface and gpu.Encoder.
type Backend struct {
	Caps                gpu.SurfaceCapabilities
	SurfaceFormats      []gpu.SurfaceFormat
	SurfacePresentModes []gpu.PresentMode

	// Hooks script results. n counts calls from 1. A nil hook succeeds.
	AcquireHook           func(n int) (gpu.Status, error)
	PresentHook           func(n int) (gpu.Status, error)
	SubmitHook            func(n int) error
	CapabilitiesHook      func() error
	CreateSwapchainHook   func(info gpu.SwapchainCreateInfo) error
	CreateFramebufferHook func(n int) error
	BeginHook             func() error
	EndHook               func() error
	WaitIdleHook          func() error

	// HangFences makes submissions never complete, so fence waits time out.
	HangFences bool

	Events     []string
	Violations []string

	FenceWaits   int
	Submits      int
	Acquires     int
	Presents     int
	IdleWaits    int
	Framebuffers int

	nextID   int
	live     map[*Handle]struct{}
	graphics *Queue
	present  *Queue
}

var (
	_ gpu.Device  = (*Backend)(nil)
	_ gpu.Surface = (*Backend)(nil)
	_ gpu.Encoder = (*Backend)(nil)
)

// New returns a backend with an 800x600 surface that allows 2 to 3 images,
// offers B8G8R8A8_SRGB and supports FIFO and mailbox presentation.
func New() *Backend {
	return &Backend{
		Caps: gpu.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  gpu.Extent2D{Width: 800, Height: 600},
			MinImageExtent: gpu.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: gpu.Extent2D{Width: 4096, Height: 4096},
		},
		SurfaceFormats: []gpu.SurfaceFormat{
			{Format: gpu.FormatB8G8R8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
			{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
		},
		SurfacePresentModes: []gpu.PresentMode{gpu.PresentModeFIFO, gpu.PresentModeMailbox},
		live:                map[*Handle]struct{}{},
		graphics:            &Queue{Name: "graphics"},
		present:             &Queue{Name: "present"},
	}
}

func (b *Backend) newHandle(kind Kind) *Handle {
	b.nextID++
	h := &Handle{Kind: kind, ID: b.nextID, backend: b}
	b.live[h] = struct{}{}
	return h
}

func (b *Backend) destroy(h *Handle) {
	if h.destroyed {
		b.violate("%s destroyed twice", h)
		return
	}
	h.destroyed = true
	delete(b.live, h)
	b.log("destroy %s", h)
}

func (b *Backend) log(format string, args ...interface{}) {
	b.Events = append(b.Events, fmt.Sprintf(format, args...))
}

func (b *Backend) violate(format string, args ...interface{}) {
	b.Violations = append(b.Violations, fmt.Sprintf(format, args...))
}

func (b *Backend) handle(r interface{}, kind Kind) *Handle {
	h, ok := r.(*Handle)
	if !ok || h == nil {
		b.violate("expected %s, got %T", kind, r)
		return &Handle{Kind: kind, backend: b}
	}
	if h.Kind != kind {
		b.violate("expected %s, got %s", kind, h)
	}
	if h.destroyed {
		b.violate("%s used after destroy", h)
	}
	return h
}

// Live counts handles of kind that have not been destroyed.
func (b *Backend) Live(kind Kind) int {
	n := 0
	for h := range b.live {
		if h.Kind == kind {
			n++
		}
	}
	return n
}

// LiveTotal counts every handle that has not been destroyed.
func (b *Backend) LiveTotal() int {
	return len(b.live)
}

// Commands returns what was recorded into buffer since its last reset.
func (b *Backend) Commands(buffer gpu.CommandBuffer) []string {
	return append([]string(nil), b.handle(buffer, KindCommandBuffer).commands...)
}

// EventsMatching returns the logged events that start with prefix.
func (b *Backend) EventsMatching(prefix string) []string {
	var out []string
	for _, e := range b.Events {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			out = append(out, e)
		}
	}
	return out
}

// Device

func (b *Backend) GraphicsQueue() gpu.Queue { return b.graphics }
func (b *Backend) PresentQueue() gpu.Queue  { return b.present }

func (b *Backend) CreateFence(signaled bool) (gpu.Fence, error) {
	h := b.newHandle(KindFence)
	h.signaled = signaled
	b.log("create %s", h)
	return h, nil
}

func (b *Backend) CreateSemaphore() (gpu.Semaphore, error) {
	h := b.newHandle(KindSemaphore)
	b.log("create %s", h)
	return h, nil
}

func (b *Backend) AllocateCommandBuffers(count int) ([]gpu.CommandBuffer, error) {
	buffers := make([]gpu.CommandBuffer, 0, count)
	for i := 0; i < count; i++ {
		h := b.newHandle(KindCommandBuffer)
		b.log("create %s", h)
		buffers = append(buffers, h)
	}
	return buffers, nil
}

func (b *Backend) WaitForFence(fence gpu.Fence, timeout time.Duration) (bool, error) {
	h := b.handle(fence, KindFence)
	b.FenceWaits++
	b.log("wait %s", h)
	if !h.signaled {
		return false, nil
	}
	for r := range b.live {
		if r.Kind == KindCommandBuffer && r.pendingFence == h {
			r.pendingFence = nil
		}
	}
	return true, nil
}

func (b *Backend) ResetFence(fence gpu.Fence) error {
	h := b.handle(fence, KindFence)
	h.signaled = false
	b.log("reset %s", h)
	return nil
}

func (b *Backend) ResetCommandBuffer(buffer gpu.CommandBuffer) error {
	h := b.handle(buffer, KindCommandBuffer)
	if h.pendingFence != nil {
		b.violate("%s reset while its submission was not observed complete", h)
	}
	h.commands = nil
	h.recording = false
	b.log("reset %s", h)
	return nil
}

func (b *Backend) Submit(queue gpu.Queue, info gpu.SubmitInfo) error {
	b.Submits++
	if queue != b.graphics {
		b.violate("submit to a queue other than graphics")
	}
	if b.SubmitHook != nil {
		if err := b.SubmitHook(b.Submits); err != nil {
			return err
		}
	}
	if len(info.WaitSemaphores) != len(info.WaitStages) {
		b.violate("submit with %d wait semaphores and %d wait stages", len(info.WaitSemaphores), len(info.WaitStages))
	}
	for _, s := range info.WaitSemaphores {
		h := b.handle(s, KindSemaphore)
		if !h.signaled {
			b.violate("submit waits on unsignaled %s", h)
		}
		h.signaled = false
	}

	var fence *Handle
	if info.Fence != nil {
		fence = b.handle(info.Fence, KindFence)
		if fence.signaled {
			b.violate("submit with signaled %s", fence)
		}
	}
	for _, c := range info.CommandBuffers {
		h := b.handle(c, KindCommandBuffer)
		if h.recording {
			b.violate("submit of %s that is still recording", h)
		}
		h.pendingFence = fence
	}
	for _, s := range info.SignalSemaphores {
		h := b.handle(s, KindSemaphore)
		if h.signaled {
			b.violate("submit signals already signaled %s", h)
		}
		h.signaled = true
	}
	if fence != nil && !b.HangFences {
		fence.signaled = true
	}
	b.log("submit")
	return nil
}

func (b *Backend) WaitIdle() error {
	b.IdleWaits++
	b.log("wait_idle")
	if b.WaitIdleHook != nil {
		return b.WaitIdleHook()
	}
	return nil
}

// Surface

func (b *Backend) Capabilities() (gpu.SurfaceCapabilities, error) {
	if b.CapabilitiesHook != nil {
		if err := b.CapabilitiesHook(); err != nil {
			return gpu.SurfaceCapabilities{}, err
		}
	}
	return b.Caps, nil
}

func (b *Backend) Formats() ([]gpu.SurfaceFormat, error) {
	return append([]gpu.SurfaceFormat(nil), b.SurfaceFormats...), nil
}

func (b *Backend) PresentModes() ([]gpu.PresentMode, error) {
	return append([]gpu.PresentMode(nil), b.SurfacePresentModes...), nil
}

func (b *Backend) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	if b.CreateSwapchainHook != nil {
		if err := b.CreateSwapchainHook(info); err != nil {
			return nil, err
		}
	}
	h := b.newHandle(KindSwapchain)
	h.Info = info
	for i := 0; i < info.MinImageCount; i++ {
		h.images = append(h.images, Image{Swapchain: h.ID, Index: i})
	}
	b.log("create %s %dx%d images=%d", h, info.Extent.Width, info.Extent.Height, info.MinImageCount)
	return h, nil
}

func (b *Backend) SwapchainImages(swapchain gpu.Swapchain) ([]gpu.Image, error) {
	h := b.handle(swapchain, KindSwapchain)
	return append([]gpu.Image(nil), h.images...), nil
}

func (b *Backend) CreateImageView(image gpu.Image, format gpu.Format) (gpu.ImageView, error) {
	if _, ok := image.(Image); !ok {
		b.violate("image view for %T", image)
	}
	h := b.newHandle(KindImageView)
	b.log("create %s", h)
	return h, nil
}

func (b *Backend) CreateFramebuffer(pass gpu.RenderPass, view gpu.ImageView, extent gpu.Extent2D) (gpu.Framebuffer, error) {
	b.Framebuffers++
	if b.CreateFramebufferHook != nil {
		if err := b.CreateFramebufferHook(b.Framebuffers); err != nil {
			return nil, err
		}
	}
	b.handle(view, KindImageView)
	h := b.newHandle(KindFramebuffer)
	b.log("create %s %dx%d", h, extent.Width, extent.Height)
	return h, nil
}

func (b *Backend) AcquireNextImage(swapchain gpu.Swapchain, timeout time.Duration, signal gpu.Semaphore) (int, gpu.Status, error) {
	h := b.handle(swapchain, KindSwapchain)
	b.Acquires++
	b.log("acquire %s", h)
	status := gpu.StatusSuccess
	if b.AcquireHook != nil {
		var err error
		status, err = b.AcquireHook(b.Acquires)
		if err != nil {
			return 0, status, err
		}
		if status != gpu.StatusSuccess && status != gpu.StatusSuboptimal {
			return 0, status, nil
		}
	}
	sem := b.handle(signal, KindSemaphore)
	if sem.signaled {
		b.violate("acquire signals already signaled %s", sem)
	}
	sem.signaled = true
	index := h.acquired % len(h.images)
	h.acquired++
	return index, status, nil
}

func (b *Backend) Present(queue gpu.Queue, swapchain gpu.Swapchain, imageIndex int, wait gpu.Semaphore) (gpu.Status, error) {
	h := b.handle(swapchain, KindSwapchain)
	b.Presents++
	if queue != b.present {
		b.violate("present on a queue other than present")
	}
	if imageIndex < 0 || imageIndex >= len(h.images) {
		b.violate("present of image %d from %s with %d images", imageIndex, h, len(h.images))
	}
	sem := b.handle(wait, KindSemaphore)
	if !sem.signaled {
		b.violate("present waits on unsignaled %s", sem)
	}
	sem.signaled = false
	b.log("present %s image=%d", h, imageIndex)
	if b.PresentHook != nil {
		return b.PresentHook(b.Presents)
	}
	return gpu.StatusSuccess, nil
}

// Encoder

func (b *Backend) record(buffer gpu.CommandBuffer, format string, args ...interface{}) {
	h := b.handle(buffer, KindCommandBuffer)
	if !h.recording {
		b.violate("%s recorded outside begin/end", h)
	}
	h.commands = append(h.commands, fmt.Sprintf(format, args...))
}

func (b *Backend) Begin(buffer gpu.CommandBuffer) error {
	h := b.handle(buffer, KindCommandBuffer)
	if b.BeginHook != nil {
		if err := b.BeginHook(); err != nil {
			return err
		}
	}
	if h.recording {
		b.violate("%s begun twice", h)
	}
	if len(h.commands) > 0 {
		b.violate("%s begun without reset", h)
	}
	h.recording = true
	return nil
}

func (b *Backend) End(buffer gpu.CommandBuffer) error {
	h := b.handle(buffer, KindCommandBuffer)
	if b.EndHook != nil {
		if err := b.EndHook(); err != nil {
			return err
		}
	}
	if !h.recording {
		return errors.Newf("%s is not recording", h)
	}
	h.recording = false
	return nil
}

func (b *Backend) BeginRenderPass(buffer gpu.CommandBuffer, pass gpu.RenderPass, framebuffer gpu.Framebuffer, area gpu.Rect2D, clear gpu.ClearColor) error {
	fb := b.handle(framebuffer, KindFramebuffer)
	b.record(buffer, "begin_render_pass %s %dx%d clear=%v", fb, area.Extent.Width, area.Extent.Height, [4]float32(clear))
	return nil
}

func (b *Backend) EndRenderPass(buffer gpu.CommandBuffer) {
	b.record(buffer, "end_render_pass")
}

func (b *Backend) BindPipeline(buffer gpu.CommandBuffer, pipeline gpu.Pipeline) {
	b.record(buffer, "bind_pipeline %s", b.handle(pipeline, KindPipeline))
}

func (b *Backend) SetViewport(buffer gpu.CommandBuffer, viewport gpu.Viewport) {
	b.record(buffer, "set_viewport %gx%g", viewport.Width, viewport.Height)
}

func (b *Backend) SetScissor(buffer gpu.CommandBuffer, scissor gpu.Rect2D) {
	b.record(buffer, "set_scissor %dx%d", scissor.Extent.Width, scissor.Extent.Height)
}

func (b *Backend) Draw(buffer gpu.CommandBuffer, vertexCount, instanceCount int) {
	b.record(buffer, "draw %d %d", vertexCount, instanceCount)
}

func (b *Backend) DrawIndexed(buffer gpu.CommandBuffer, indexCount, instanceCount int) {
	b.record(buffer, "draw_indexed %d %d", indexCount, instanceCount)
}

// Record appends an arbitrary command to a recording buffer, for fake draw
// content that binds its own state.
func (b *Backend) Record(buffer gpu.CommandBuffer, command string) {
	b.record(buffer, "%s", command)
}

// NewRenderPass and NewPipeline stand in for the pipeline provider.
func (b *Backend) NewRenderPass() gpu.RenderPass {
	h := b.newHandle(KindRenderPass)
	b.log("create %s", h)
	return h
}

func (b *Backend) NewPipeline() gpu.Pipeline {
	h := b.newHandle(KindPipeline)
	b.log("create %s", h)
	return h
}
