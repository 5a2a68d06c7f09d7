package renderer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/texturedquad/gpu"
	"github.com/vkngwrapper/texturedquad/gpu/gpufake"
	"github.com/vkngwrapper/texturedquad/recorder"
	"github.com/vkngwrapper/texturedquad/swapchain"
)

type pipeline struct {
	pass     gpu.RenderPass
	pipeline gpu.Pipeline
}

func (p pipeline) RenderPass() gpu.RenderPass { return p.pass }
func (p pipeline) Pipeline() gpu.Pipeline     { return p.pipeline }

type content struct {
	slots []int
}

func (c *content) Bind(encoder gpu.Encoder, buffer gpu.CommandBuffer, slot int, extent gpu.Extent2D) (recorder.Draw, error) {
	c.slots = append(c.slots, slot)
	return recorder.Draw{Indexed: true, IndexCount: 6, InstanceCount: 1}, nil
}

func (c *content) Destroy() {}

type fixture struct {
	backend  *gpufake.Backend
	window   *gpufake.Window
	pipeline pipeline
	content  *content
}

func newFixture() *fixture {
	backend := gpufake.New()
	return &fixture{
		backend: backend,
		window:  gpufake.NewWindow(),
		pipeline: pipeline{
			pass:     backend.NewRenderPass(),
			pipeline: backend.NewPipeline(),
		},
		content: &content{},
	}
}

func (f *fixture) options() Options {
	return Options{
		FramesInFlight: 2,
		FenceTimeout:   time.Second,
		Preferences:    swapchain.DefaultPreferences(),
		ClearColor:     gpu.ClearColor{0, 0, 0, 1},
	}
}

func (f *fixture) newContext(t *testing.T, opts Options) *Context {
	t.Helper()

	c, err := New(f.backend, f.backend, f.backend, f.window, f.pipeline, f.content, opts)
	require.NoError(t, err)
	c.Own(f.pipeline.pass, f.pipeline.pipeline, f.content)
	return c
}

// closeAfter closes the window once n frames worth of events were polled.
func (f *fixture) closeAfter(n int) {
	f.window.OnPollEvents = func(w *gpufake.Window) {
		if w.PollEventsCalls > n {
			w.Closing = true
		}
	}
}

func (f *fixture) eventIndex(t *testing.T, prefix string) int {
	t.Helper()

	for i, e := range f.backend.Events {
		if strings.HasPrefix(e, prefix) {
			return i
		}
	}
	require.Failf(t, "event not found", "no event starts with %q", prefix)
	return -1
}

func (f *fixture) lastEventIndex(prefix string) int {
	last := -1
	for i, e := range f.backend.Events {
		if strings.HasPrefix(e, prefix) {
			last = i
		}
	}
	return last
}

func TestRunUntilCloseThenTeardown(t *testing.T) {
	f := newFixture()
	c := f.newContext(t, f.options())
	f.closeAfter(6)

	require.NoError(t, c.Run(context.Background()))
	require.Equal(t, 6, c.Stats().Presented)
	require.Equal(t, []int{0, 1, 0, 1, 0, 1}, f.content.slots)

	presentsBeforeClose := len(f.backend.Events)
	require.NoError(t, c.Close())
	require.Empty(t, f.backend.Violations)
	require.Zero(t, f.backend.LiveTotal())

	idle := f.lastEventIndex("wait_idle")
	require.GreaterOrEqual(t, idle, presentsBeforeClose)
	require.Less(t, idle, f.eventIndex(t, "destroy fence"))
	require.Less(t, f.lastEventIndex("destroy framebuffer"), f.eventIndex(t, "destroy image_view"))
	require.Less(t, f.lastEventIndex("destroy image_view"), f.eventIndex(t, "destroy swapchain"))
	require.Less(t, f.eventIndex(t, "destroy swapchain"), f.eventIndex(t, "destroy pipeline"))
	require.Less(t, f.eventIndex(t, "destroy pipeline"), f.eventIndex(t, "destroy render_pass"))
}

func TestFatalFrameStillTearsDown(t *testing.T) {
	f := newFixture()
	f.backend.SubmitHook = func(n int) error {
		if n == 3 {
			return errors.New("device lost")
		}
		return nil
	}
	c := f.newContext(t, f.options())

	err := c.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, gpu.ErrSubmit))
	require.True(t, gpu.IsFatal(err))

	idleWaits := f.backend.IdleWaits
	require.NoError(t, c.Close())
	require.Equal(t, idleWaits+1, f.backend.IdleWaits)
	require.Zero(t, f.backend.LiveTotal())
}

func TestCloseTearsDownWhenIdleWaitFails(t *testing.T) {
	f := newFixture()
	c := f.newContext(t, f.options())
	f.backend.WaitIdleHook = func() error { return errors.New("device lost") }

	err := c.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "device lost")
	require.Zero(t, f.backend.LiveTotal())
}

func TestCloseTwice(t *testing.T) {
	f := newFixture()
	c := f.newContext(t, f.options())

	require.NoError(t, c.Close())
	idleWaits := f.backend.IdleWaits
	require.NoError(t, c.Close())
	require.Equal(t, idleWaits, f.backend.IdleWaits)
	require.Empty(t, f.backend.Violations)

	require.Error(t, c.Run(context.Background()))
}

func TestNewFailsOnSurfaceSetup(t *testing.T) {
	f := newFixture()
	f.backend.CreateSwapchainHook = func(gpu.SwapchainCreateInfo) error {
		return errors.New("surface lost")
	}

	_, err := New(f.backend, f.backend, f.backend, f.window, f.pipeline, f.content, f.options())
	require.Error(t, err)
	require.True(t, errors.Is(err, gpu.ErrSurfaceSetup))
	// only the caller's render pass and pipeline remain
	require.Equal(t, 2, f.backend.LiveTotal())
}

func TestNewReleasesSurfaceSetWhenRingFails(t *testing.T) {
	f := newFixture()
	opts := f.options()
	opts.FramesInFlight = 0

	_, err := New(f.backend, f.backend, f.backend, f.window, f.pipeline, f.content, opts)
	require.Error(t, err)
	require.Zero(t, f.backend.Live(gpufake.KindSwapchain))
	require.Zero(t, f.backend.Live(gpufake.KindImageView))
	require.Zero(t, f.backend.Live(gpufake.KindFramebuffer))
}

func TestResizeDuringRun(t *testing.T) {
	f := newFixture()
	c := f.newContext(t, f.options())
	f.window.OnPollEvents = func(w *gpufake.Window) {
		switch w.PollEventsCalls {
		case 3:
			w.Resize(1024, 768)
			f.backend.Caps.CurrentExtent = gpu.Extent2D{Width: 1024, Height: 768}
		case 8:
			w.Closing = true
		}
	}

	require.NoError(t, c.Run(context.Background()))
	require.Equal(t, gpu.Extent2D{Width: 1024, Height: 768}, c.SurfaceSet().Extent())
	require.Equal(t, 2, c.SurfaceSet().Builds())

	require.NoError(t, c.Close())
	require.Zero(t, f.backend.LiveTotal())
}
