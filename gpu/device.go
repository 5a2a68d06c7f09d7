package gpu

import "time"

// Resource is any device object the caller must release.
type Resource interface {
	Destroy()
}

// Opaque handles. A backend hands them out and only accepts its own back.
type (
	Fence         interface{ Resource }
	Semaphore     interface{ Resource }
	CommandBuffer interface{ Resource }
	Swapchain     interface{ Resource }
	ImageView     interface{ Resource }
	Framebuffer   interface{ Resource }
	RenderPass    interface{ Resource }
	Pipeline      interface{ Resource }
)

// Image is a presentable image. It is owned by its swapchain and is never
// destroyed on its own.
type Image interface{}

// Queue is a device queue. Graphics and present may be the same queue.
type Queue interface{}

// PipelineStage is a bitmask of pipeline stages. Values match
// VkPipelineStageFlags.
type PipelineStage uint32

const (
	PipelineStageTopOfPipe             PipelineStage = 0x00000001
	PipelineStageFragmentShader        PipelineStage = 0x00000080
	PipelineStageColorAttachmentOutput PipelineStage = 0x00000400
	PipelineStageBottomOfPipe          PipelineStage = 0x00002000
)

// SubmitInfo describes one command buffer submission.
type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStage
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
	// Fence, if set, is signaled once every command buffer has retired.
	Fence Fence
}

// Device is the logical device: synchronization objects, command buffers,
// submission and idle-wait.
type Device interface {
	GraphicsQueue() Queue
	PresentQueue() Queue

	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)
	AllocateCommandBuffers(count int) ([]CommandBuffer, error)

	// WaitForFence returns false without error when the timeout expires first.
	WaitForFence(fence Fence, timeout time.Duration) (bool, error)
	ResetFence(fence Fence) error
	ResetCommandBuffer(buffer CommandBuffer) error

	Submit(queue Queue, info SubmitInfo) error
	WaitIdle() error
}

// SwapchainCreateInfo is what a presentation surface set asks the backend for.
type SwapchainCreateInfo struct {
	MinImageCount int
	Format        SurfaceFormat
	Extent        Extent2D
	PresentMode   PresentMode
}

// Surface is the presentation side of a device bound to one window surface.
type Surface interface {
	Capabilities() (SurfaceCapabilities, error)
	Formats() ([]SurfaceFormat, error)
	PresentModes() ([]PresentMode, error)

	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	SwapchainImages(swapchain Swapchain) ([]Image, error)
	CreateImageView(image Image, format Format) (ImageView, error)
	CreateFramebuffer(pass RenderPass, view ImageView, extent Extent2D) (Framebuffer, error)

	// AcquireNextImage signals the semaphore once the returned image can be
	// rendered to. OutOfDate, Suboptimal and Timeout come back as a Status,
	// not an error.
	AcquireNextImage(swapchain Swapchain, timeout time.Duration, signal Semaphore) (int, Status, error)
	// Present queues the image for display once wait is signaled.
	Present(queue Queue, swapchain Swapchain, imageIndex int, wait Semaphore) (Status, error)
}

// Encoder records commands into a command buffer.
type Encoder interface {
	Begin(buffer CommandBuffer) error
	End(buffer CommandBuffer) error

	BeginRenderPass(buffer CommandBuffer, pass RenderPass, framebuffer Framebuffer, area Rect2D, clear ClearColor) error
	EndRenderPass(buffer CommandBuffer)
	BindPipeline(buffer CommandBuffer, pipeline Pipeline)
	SetViewport(buffer CommandBuffer, viewport Viewport)
	SetScissor(buffer CommandBuffer, scissor Rect2D)
	Draw(buffer CommandBuffer, vertexCount, instanceCount int)
	DrawIndexed(buffer CommandBuffer, indexCount, instanceCount int)
}
