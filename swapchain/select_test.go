package swapchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/texturedquad/gpu"
)

func TestChooseSurfaceFormatPrefersRequested(t *testing.T) {
	available := []gpu.SurfaceFormat{
		{Format: gpu.FormatB8G8R8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
		{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
	}

	chosen := ChooseSurfaceFormat(available, DefaultPreferences().Format)
	require.Equal(t, gpu.FormatB8G8R8A8SRGB, chosen.Format)
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	available := []gpu.SurfaceFormat{
		{Format: gpu.FormatR8G8B8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
		{Format: gpu.FormatB8G8R8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
	}

	chosen := ChooseSurfaceFormat(available, DefaultPreferences().Format)
	require.Equal(t, available[0], chosen)
}

func TestChooseSurfaceFormatRequiresColorSpaceMatch(t *testing.T) {
	available := []gpu.SurfaceFormat{
		{Format: gpu.FormatR8G8B8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
		{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpace(1000104002)},
	}

	chosen := ChooseSurfaceFormat(available, DefaultPreferences().Format)
	require.Equal(t, available[0], chosen)
}

func TestChoosePresentMode(t *testing.T) {
	require.Equal(t, gpu.PresentModeMailbox,
		ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeFIFO, gpu.PresentModeMailbox}, gpu.PresentModeMailbox))
	require.Equal(t, gpu.PresentModeFIFO,
		ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeImmediate, gpu.PresentModeFIFO}, gpu.PresentModeMailbox))
	require.Equal(t, gpu.PresentModeFIFO,
		ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeImmediate}, gpu.PresentModeMailbox))
}

func TestChooseExtent(t *testing.T) {
	caps := gpu.SurfaceCapabilities{
		CurrentExtent:  gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent},
		MinImageExtent: gpu.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: gpu.Extent2D{Width: 1920, Height: 1080},
	}

	testCases := []struct {
		name        string
		framebuffer gpu.Extent2D
		expected    gpu.Extent2D
	}{
		{name: "inside bounds", framebuffer: gpu.Extent2D{Width: 800, Height: 600}, expected: gpu.Extent2D{Width: 800, Height: 600}},
		{name: "too large", framebuffer: gpu.Extent2D{Width: 4000, Height: 3000}, expected: gpu.Extent2D{Width: 1920, Height: 1080}},
		{name: "too small", framebuffer: gpu.Extent2D{Width: 10, Height: 5000}, expected: gpu.Extent2D{Width: 100, Height: 1080}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, ChooseExtent(caps, tc.framebuffer))
		})
	}

	caps.CurrentExtent = gpu.Extent2D{Width: 640, Height: 480}
	require.Equal(t, caps.CurrentExtent, ChooseExtent(caps, gpu.Extent2D{Width: 800, Height: 600}))
}

func TestChooseImageCount(t *testing.T) {
	require.Equal(t, 3, ChooseImageCount(gpu.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	require.Equal(t, 2, ChooseImageCount(gpu.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
	require.Equal(t, 4, ChooseImageCount(gpu.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 0}))
}
