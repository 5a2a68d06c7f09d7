package swapchain

import "github.com/vkngwrapper/texturedquad/gpu"

// Preferences are what the application would like from the surface. Each is
// honored when the surface supports it and replaced by a fallback otherwise.
type Preferences struct {
	Format      gpu.SurfaceFormat
	PresentMode gpu.PresentMode
}

// DefaultPreferences asks for sRGB BGRA8 and mailbox presentation.
func DefaultPreferences() Preferences {
	return Preferences{
		Format: gpu.SurfaceFormat{
			Format:     gpu.FormatB8G8R8A8SRGB,
			ColorSpace: gpu.ColorSpaceSRGBNonlinear,
		},
		PresentMode: gpu.PresentModeMailbox,
	}
}

// ChooseSurfaceFormat returns preferred if the surface offers that exact
// format and color space pair, and the first available format otherwise.
// available must not be empty.
func ChooseSurfaceFormat(available []gpu.SurfaceFormat, preferred gpu.SurfaceFormat) gpu.SurfaceFormat {
	for _, format := range available {
		if format == preferred {
			return format
		}
	}

	return available[0]
}

// ChoosePresentMode returns preferred if available, else FIFO, which every
// surface supports.
func ChoosePresentMode(available []gpu.PresentMode, preferred gpu.PresentMode) gpu.PresentMode {
	for _, mode := range available {
		if mode == preferred {
			return mode
		}
	}

	return gpu.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent when it has one. Otherwise
// the window's framebuffer size is clamped into the surface's bounds.
func ChooseExtent(caps gpu.SurfaceCapabilities, framebuffer gpu.Extent2D) gpu.Extent2D {
	if caps.CurrentExtent.Width != gpu.UndefinedExtent {
		return caps.CurrentExtent
	}

	width := framebuffer.Width
	height := framebuffer.Height

	if width < caps.MinImageExtent.Width {
		width = caps.MinImageExtent.Width
	}
	if width > caps.MaxImageExtent.Width {
		width = caps.MaxImageExtent.Width
	}
	if height < caps.MinImageExtent.Height {
		height = caps.MinImageExtent.Height
	}
	if height > caps.MaxImageExtent.Height {
		height = caps.MaxImageExtent.Height
	}

	return gpu.Extent2D{Width: width, Height: height}
}

// ChooseImageCount asks for one image more than the minimum so the
// application never waits on the driver to release one. A MaxImageCount of
// zero means unbounded.
func ChooseImageCount(caps gpu.SurfaceCapabilities) int {
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && caps.MaxImageCount < imageCount {
		imageCount = caps.MaxImageCount
	}

	return imageCount
}
