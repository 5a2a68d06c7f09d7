package recorder

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/texturedquad/gpu"
	"github.com/vkngwrapper/texturedquad/gpu/gpufake"
)

type fakePipeline struct {
	pass     gpu.RenderPass
	pipeline gpu.Pipeline
}

func (p fakePipeline) RenderPass() gpu.RenderPass { return p.pass }
func (p fakePipeline) Pipeline() gpu.Pipeline     { return p.pipeline }

type fakeContent struct {
	backend *gpufake.Backend
	draw    Draw
	err     error
	slots   []int
	extents []gpu.Extent2D
}

func (c *fakeContent) Bind(encoder gpu.Encoder, buffer gpu.CommandBuffer, slot int, extent gpu.Extent2D) (Draw, error) {
	c.slots = append(c.slots, slot)
	c.extents = append(c.extents, extent)
	if c.err != nil {
		return Draw{}, c.err
	}
	c.backend.Record(buffer, fmt.Sprintf("bind_content slot=%d", slot))
	return c.draw, nil
}

func setup(t *testing.T, draw Draw) (*gpufake.Backend, *Recorder, *fakeContent, gpu.CommandBuffer, gpu.Framebuffer) {
	t.Helper()

	backend := gpufake.New()
	pass := backend.NewRenderPass()
	content := &fakeContent{backend: backend, draw: draw}
	rec := New(backend, fakePipeline{pass: pass, pipeline: backend.NewPipeline()}, content, gpu.ClearColor{0, 0, 0, 1})

	buffers, err := backend.AllocateCommandBuffers(1)
	require.NoError(t, err)
	view, err := backend.CreateImageView(gpufake.Image{}, gpu.FormatB8G8R8A8SRGB)
	require.NoError(t, err)
	framebuffer, err := backend.CreateFramebuffer(pass, view, gpu.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	return backend, rec, content, buffers[0], framebuffer
}

func TestRecordIndexedQuad(t *testing.T) {
	backend, rec, content, buffer, framebuffer := setup(t, Draw{Indexed: true, IndexCount: 6, InstanceCount: 1})

	err := rec.Record(buffer, 1, framebuffer, gpu.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	require.Equal(t, []string{
		"begin_render_pass framebuffer#5 800x600 clear=[0 0 0 1]",
		"bind_pipeline pipeline#2",
		"bind_content slot=1",
		"set_viewport 800x600",
		"set_scissor 800x600",
		"draw_indexed 6 1",
		"end_render_pass",
	}, backend.Commands(buffer))
	require.Equal(t, []int{1}, content.slots)
	require.Equal(t, []gpu.Extent2D{{Width: 800, Height: 600}}, content.extents)
	require.Empty(t, backend.Violations)
}

func TestRecordNonIndexedDefaultsToOneInstance(t *testing.T) {
	backend, rec, _, buffer, framebuffer := setup(t, Draw{VertexCount: 3})

	require.NoError(t, rec.Record(buffer, 0, framebuffer, gpu.Extent2D{Width: 640, Height: 480}))

	commands := backend.Commands(buffer)
	require.Contains(t, commands, "draw 3 1")
	require.Contains(t, commands, "set_viewport 640x480")
}

func TestRecordTwiceNeedsReset(t *testing.T) {
	backend, rec, _, buffer, framebuffer := setup(t, Draw{VertexCount: 3})
	extent := gpu.Extent2D{Width: 800, Height: 600}

	require.NoError(t, rec.Record(buffer, 0, framebuffer, extent))
	require.NoError(t, backend.ResetCommandBuffer(buffer))
	require.NoError(t, rec.Record(buffer, 0, framebuffer, extent))

	require.Len(t, backend.Commands(buffer), 7)
	require.Empty(t, backend.Violations)
}

func TestRecordFailuresAreRecordErrors(t *testing.T) {
	t.Run("begin", func(t *testing.T) {
		backend, rec, _, buffer, framebuffer := setup(t, Draw{VertexCount: 3})
		backend.BeginHook = func() error { return errors.New("VK_ERROR_OUT_OF_HOST_MEMORY") }

		err := rec.Record(buffer, 0, framebuffer, gpu.Extent2D{Width: 800, Height: 600})
		require.True(t, errors.Is(err, gpu.ErrRecord))
	})

	t.Run("end", func(t *testing.T) {
		backend, rec, _, buffer, framebuffer := setup(t, Draw{VertexCount: 3})
		backend.EndHook = func() error { return errors.New("VK_ERROR_OUT_OF_DEVICE_MEMORY") }

		err := rec.Record(buffer, 0, framebuffer, gpu.Extent2D{Width: 800, Height: 600})
		require.True(t, errors.Is(err, gpu.ErrRecord))
		require.Contains(t, err.Error(), "VK_ERROR_OUT_OF_DEVICE_MEMORY")
	})

	t.Run("content", func(t *testing.T) {
		_, rec, content, buffer, framebuffer := setup(t, Draw{VertexCount: 3})
		content.err = errors.New("descriptor set missing")

		err := rec.Record(buffer, 0, framebuffer, gpu.Extent2D{Width: 800, Height: 600})
		require.True(t, errors.Is(err, gpu.ErrRecord))
	})
}
