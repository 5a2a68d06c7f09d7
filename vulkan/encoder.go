package vulkan

import (
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/texturedquad/gpu"
)

func (d *Device) Begin(buffer gpu.CommandBuffer) error {
	_, err := d.driver.BeginCommandBuffer(commandBufferOf(buffer), core1_0.CommandBufferBeginInfo{})
	return err
}

func (d *Device) End(buffer gpu.CommandBuffer) error {
	_, err := d.driver.EndCommandBuffer(commandBufferOf(buffer))
	return err
}

func (d *Device) BeginRenderPass(buffer gpu.CommandBuffer, pass gpu.RenderPass, fb gpu.Framebuffer, area gpu.Rect2D, clear gpu.ClearColor) error {
	return d.driver.CmdBeginRenderPass(commandBufferOf(buffer), core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  renderPassOf(pass),
			Framebuffer: framebufferOf(fb),
			RenderArea:  rectOf(area),
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(clear),
			},
		})
}

func (d *Device) EndRenderPass(buffer gpu.CommandBuffer) {
	d.driver.CmdEndRenderPass(commandBufferOf(buffer))
}

func (d *Device) BindPipeline(buffer gpu.CommandBuffer, p gpu.Pipeline) {
	d.driver.CmdBindPipeline(commandBufferOf(buffer), core1_0.PipelineBindPointGraphics, pipelineOf(p).handle)
}

func (d *Device) SetViewport(buffer gpu.CommandBuffer, viewport gpu.Viewport) {
	d.driver.CmdSetViewport(commandBufferOf(buffer), core1_0.Viewport{
		X:        viewport.X,
		Y:        viewport.Y,
		Width:    viewport.Width,
		Height:   viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	})
}

func (d *Device) SetScissor(buffer gpu.CommandBuffer, scissor gpu.Rect2D) {
	d.driver.CmdSetScissor(commandBufferOf(buffer), rectOf(scissor))
}

func (d *Device) Draw(buffer gpu.CommandBuffer, vertexCount, instanceCount int) {
	d.driver.CmdDraw(commandBufferOf(buffer), vertexCount, instanceCount, 0, 0)
}

func (d *Device) DrawIndexed(buffer gpu.CommandBuffer, indexCount, instanceCount int) {
	d.driver.CmdDrawIndexed(commandBufferOf(buffer), indexCount, instanceCount, 0, 0, 0)
}
