package swapchain

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/texturedquad/gpu"
	"github.com/vkngwrapper/texturedquad/gpu/gpufake"
)

func newSet(t *testing.T, backend *gpufake.Backend, window *gpufake.Window) *Set {
	t.Helper()

	set, err := New(backend, backend, window, backend.NewRenderPass(), DefaultPreferences())
	require.NoError(t, err)
	return set
}

func TestBuildCreatesOneViewAndFramebufferPerImage(t *testing.T) {
	backend := gpufake.New()
	set := newSet(t, backend, gpufake.NewWindow())

	require.True(t, set.Live())
	require.Equal(t, 3, set.Len())
	require.Equal(t, 3, backend.Live(gpufake.KindImageView))
	require.Equal(t, 3, backend.Live(gpufake.KindFramebuffer))
	require.Equal(t, gpu.Extent2D{Width: 800, Height: 600}, set.Extent())
	require.Equal(t, gpu.FormatB8G8R8A8SRGB, set.Format().Format)
	require.Equal(t, gpu.PresentModeMailbox, set.PresentMode())
	require.Equal(t, 1, set.Builds())
	require.Empty(t, backend.Violations)
}

func TestBuildFallsBackWhenPreferencesAreMissing(t *testing.T) {
	backend := gpufake.New()
	backend.SurfaceFormats = []gpu.SurfaceFormat{{Format: gpu.FormatR8G8B8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear}}
	backend.SurfacePresentModes = []gpu.PresentMode{gpu.PresentModeFIFO}
	set := newSet(t, backend, gpufake.NewWindow())

	require.Equal(t, gpu.FormatR8G8B8A8UNorm, set.Format().Format)
	require.Equal(t, gpu.PresentModeFIFO, set.PresentMode())
}

func TestBuildUsesUnboundedImageCount(t *testing.T) {
	backend := gpufake.New()
	backend.Caps.MinImageCount = 3
	backend.Caps.MaxImageCount = 0
	set := newSet(t, backend, gpufake.NewWindow())

	require.Equal(t, 4, set.Len())
}

func TestBuildClampsWindowSizeWhenSurfaceLeavesExtentOpen(t *testing.T) {
	backend := gpufake.New()
	backend.Caps.CurrentExtent = gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}
	backend.Caps.MaxImageExtent = gpu.Extent2D{Width: 1024, Height: 1024}
	window := gpufake.NewWindow()
	window.Size = gpu.Extent2D{Width: 2000, Height: 700}
	set := newSet(t, backend, window)

	require.Equal(t, gpu.Extent2D{Width: 1024, Height: 700}, set.Extent())
}

func TestBuildRejectsEmptySurfaceQueries(t *testing.T) {
	t.Run("no formats", func(t *testing.T) {
		backend := gpufake.New()
		backend.SurfaceFormats = nil
		_, err := New(backend, backend, gpufake.NewWindow(), backend.NewRenderPass(), DefaultPreferences())
		require.True(t, errors.Is(err, gpu.ErrSurfaceSetup))
		require.Equal(t, 0, backend.Live(gpufake.KindSwapchain))
	})

	t.Run("no present modes", func(t *testing.T) {
		backend := gpufake.New()
		backend.SurfacePresentModes = nil
		_, err := New(backend, backend, gpufake.NewWindow(), backend.NewRenderPass(), DefaultPreferences())
		require.True(t, errors.Is(err, gpu.ErrSurfaceSetup))
	})

	t.Run("capabilities error", func(t *testing.T) {
		backend := gpufake.New()
		backend.CapabilitiesHook = func() error { return errors.New("VK_ERROR_SURFACE_LOST_KHR") }
		_, err := New(backend, backend, gpufake.NewWindow(), backend.NewRenderPass(), DefaultPreferences())
		require.True(t, errors.Is(err, gpu.ErrSurfaceSetup))
		require.Contains(t, err.Error(), "VK_ERROR_SURFACE_LOST_KHR")
	})
}

func TestBuildFailureLeavesNothingBehind(t *testing.T) {
	backend := gpufake.New()
	backend.CreateFramebufferHook = func(n int) error {
		if n == 2 {
			return errors.New("VK_ERROR_OUT_OF_DEVICE_MEMORY")
		}
		return nil
	}
	pass := backend.NewRenderPass()

	_, err := New(backend, backend, gpufake.NewWindow(), pass, DefaultPreferences())
	require.Error(t, err)
	require.True(t, errors.Is(err, gpu.ErrSurfaceSetup))
	require.Equal(t, 0, backend.Live(gpufake.KindSwapchain))
	require.Equal(t, 0, backend.Live(gpufake.KindImageView))
	require.Equal(t, 0, backend.Live(gpufake.KindFramebuffer))
	require.Equal(t, 1, backend.LiveTotal(), "only the render pass should survive")
	require.Empty(t, backend.Violations)
}

func TestTeardownOrder(t *testing.T) {
	backend := gpufake.New()
	set := newSet(t, backend, gpufake.NewWindow())
	backend.Events = nil

	set.Teardown()

	destroys := backend.EventsMatching("destroy")
	require.Len(t, destroys, 7)
	for _, e := range destroys[:3] {
		require.True(t, strings.HasPrefix(e, "destroy framebuffer"), e)
	}
	for _, e := range destroys[3:6] {
		require.True(t, strings.HasPrefix(e, "destroy image_view"), e)
	}
	require.True(t, strings.HasPrefix(destroys[6], "destroy swapchain"), destroys[6])
	require.False(t, set.Live())

	set.Teardown()
	require.Empty(t, backend.Violations)
}

func TestRebuildTwiceLeaksNothing(t *testing.T) {
	backend := gpufake.New()
	window := gpufake.NewWindow()
	set := newSet(t, backend, window)
	first := set.Generation()

	window.Resize(1024, 768)
	backend.Caps.CurrentExtent = gpu.Extent2D{Width: 1024, Height: 768}
	require.NoError(t, set.Rebuild())
	require.NoError(t, set.Rebuild())

	require.Equal(t, 2, backend.IdleWaits)
	require.Equal(t, 3, set.Builds())
	require.NotEqual(t, first, set.Generation())
	require.Equal(t, gpu.Extent2D{Width: 1024, Height: 768}, set.Extent())
	require.Equal(t, 1, backend.Live(gpufake.KindSwapchain))
	require.Equal(t, 3, backend.Live(gpufake.KindImageView))
	require.Equal(t, 3, backend.Live(gpufake.KindFramebuffer))
	require.Empty(t, backend.Violations)
}

func TestRebuildPicksUpNewImageCount(t *testing.T) {
	backend := gpufake.New()
	set := newSet(t, backend, gpufake.NewWindow())
	require.Equal(t, 3, set.Len())

	backend.Caps.MinImageCount = 4
	backend.Caps.MaxImageCount = 8
	require.NoError(t, set.Rebuild())

	require.Equal(t, 5, set.Len())
	require.Equal(t, 5, backend.Live(gpufake.KindFramebuffer))
}

func TestRebuildRejectsFormatChange(t *testing.T) {
	backend := gpufake.New()
	set := newSet(t, backend, gpufake.NewWindow())

	backend.SurfaceFormats = []gpu.SurfaceFormat{{Format: gpu.FormatR8G8B8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear}}
	err := set.Rebuild()
	require.True(t, errors.Is(err, gpu.ErrSurfaceSetup))
	require.False(t, set.Live())
	require.Equal(t, 0, backend.Live(gpufake.KindFramebuffer))
}

func TestRebuildIdleWaitFailure(t *testing.T) {
	backend := gpufake.New()
	set := newSet(t, backend, gpufake.NewWindow())
	backend.WaitIdleHook = func() error { return errors.New("VK_ERROR_DEVICE_LOST") }

	err := set.Rebuild()
	require.True(t, errors.Is(err, gpu.ErrSurfaceSetup))
	require.True(t, set.Live(), "resources must not be destroyed while the device may be using them")
}

func TestSelectFormatMatchesBuild(t *testing.T) {
	backend := gpufake.New()
	format, err := SelectFormat(backend, DefaultPreferences())
	require.NoError(t, err)

	set := newSet(t, backend, gpufake.NewWindow())
	require.Equal(t, format, set.Format())
}
