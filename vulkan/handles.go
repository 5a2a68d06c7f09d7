package vulkan

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/texturedquad/gpu"
)

type fence struct {
	device *Device
	handle core1_0.Fence
}

func (f *fence) Destroy() {
	f.device.driver.DestroyFence(f.handle, nil)
}

type semaphore struct {
	device *Device
	handle core1_0.Semaphore
}

func (s *semaphore) Destroy() {
	s.device.driver.DestroySemaphore(s.handle, nil)
}

type commandBuffer struct {
	device *Device
	handle core1_0.CommandBuffer
}

// Destroy returns the buffer to the device's command pool.
func (c *commandBuffer) Destroy() {
	c.device.driver.FreeCommandBuffers(c.handle)
}

type swapchain struct {
	device *Device
	handle khr_swapchain.Swapchain
}

func (s *swapchain) Destroy() {
	s.device.swapchainExtension.DestroySwapchain(s.handle, nil)
}

type imageView struct {
	device *Device
	handle core1_0.ImageView
}

func (v *imageView) Destroy() {
	v.device.driver.DestroyImageView(v.handle, nil)
}

type framebuffer struct {
	device *Device
	handle core1_0.Framebuffer
}

func (f *framebuffer) Destroy() {
	f.device.driver.DestroyFramebuffer(f.handle, nil)
}

type renderPass struct {
	device *Device
	handle core1_0.RenderPass
}

func (r *renderPass) Destroy() {
	r.device.driver.DestroyRenderPass(r.handle, nil)
}

type pipeline struct {
	device *Device
	handle core1_0.Pipeline
	layout core1_0.PipelineLayout
}

func (p *pipeline) Destroy() {
	p.device.driver.DestroyPipeline(p.handle, nil)
	p.device.driver.DestroyPipelineLayout(p.layout, nil)
}

// The gpu contracts only hand these handles back to the backend that made
// them, so a failed assertion is a programming error.

func fenceOf(f gpu.Fence) core1_0.Fence {
	return f.(*fence).handle
}

func semaphoreOf(s gpu.Semaphore) core1_0.Semaphore {
	return s.(*semaphore).handle
}

func commandBufferOf(c gpu.CommandBuffer) core1_0.CommandBuffer {
	return c.(*commandBuffer).handle
}

func swapchainOf(s gpu.Swapchain) khr_swapchain.Swapchain {
	return s.(*swapchain).handle
}

func imageViewOf(v gpu.ImageView) core1_0.ImageView {
	return v.(*imageView).handle
}

func framebufferOf(f gpu.Framebuffer) core1_0.Framebuffer {
	return f.(*framebuffer).handle
}

func renderPassOf(r gpu.RenderPass) core1_0.RenderPass {
	return r.(*renderPass).handle
}

func pipelineOf(p gpu.Pipeline) *pipeline {
	return p.(*pipeline)
}
