// Package recorder writes the single render pass of a frame into a command
// buffer.
package recorder

import (
	"github.com/vkngwrapper/texturedquad/gpu"
)

// Pipeline supplies the render pass framebuffers are built against and the
// graphics pipeline to draw with. Viewport and scissor are dynamic state.
type Pipeline interface {
	RenderPass() gpu.RenderPass
	Pipeline() gpu.Pipeline
}

// Draw describes the draw call content wants issued.
type Draw struct {
	Indexed       bool
	IndexCount    int
	VertexCount   int
	InstanceCount int
}

// Content binds per-slot state (vertex and index buffers, descriptor sets)
// after the pipeline is bound, and says what to draw. slot is the frame ring
// index; its previous submission has completed, so per-slot uniforms may be
// rewritten. extent is the size of the target framebuffer.
type Content interface {
	Bind(encoder gpu.Encoder, buffer gpu.CommandBuffer, slot int, extent gpu.Extent2D) (Draw, error)
}

// Recorder holds no per-frame state; every Record starts from a reset buffer.
type Recorder struct {
	encoder  gpu.Encoder
	pipeline Pipeline
	content  Content
	clear    gpu.ClearColor
}

func New(encoder gpu.Encoder, pipeline Pipeline, content Content, clear gpu.ClearColor) *Recorder {
	return &Recorder{
		encoder:  encoder,
		pipeline: pipeline,
		content:  content,
		clear:    clear,
	}
}

// Record fills buffer with one pass over framebuffer. Failures are marked
// gpu.ErrRecord.
func (r *Recorder) Record(buffer gpu.CommandBuffer, slot int, framebuffer gpu.Framebuffer, extent gpu.Extent2D) error {
	err := r.encoder.Begin(buffer)
	if err != nil {
		return gpu.Markf(err, gpu.ErrRecord, "begin command buffer for frame %d", slot)
	}

	area := gpu.Rect2D{Extent: extent}
	err = r.encoder.BeginRenderPass(buffer, r.pipeline.RenderPass(), framebuffer, area, r.clear)
	if err != nil {
		return gpu.Markf(err, gpu.ErrRecord, "begin render pass for frame %d", slot)
	}

	r.encoder.BindPipeline(buffer, r.pipeline.Pipeline())

	draw, err := r.content.Bind(r.encoder, buffer, slot, extent)
	if err != nil {
		return gpu.Markf(err, gpu.ErrRecord, "bind content for frame %d", slot)
	}

	r.encoder.SetViewport(buffer, gpu.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	r.encoder.SetScissor(buffer, area)

	instances := draw.InstanceCount
	if instances < 1 {
		instances = 1
	}
	if draw.Indexed {
		r.encoder.DrawIndexed(buffer, draw.IndexCount, instances)
	} else {
		r.encoder.Draw(buffer, draw.VertexCount, instances)
	}

	r.encoder.EndRenderPass(buffer)

	err = r.encoder.End(buffer)
	if err != nil {
		return gpu.Markf(err, gpu.ErrRecord, "end command buffer for frame %d", slot)
	}

	return nil
}
