package gpu

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  int
	Height int
}

// UndefinedExtent is the CurrentExtent width a surface reports when the
// swapchain extent is decided by the application rather than the window.
const UndefinedExtent = -1

// IsZero reports whether the extent has no area, as it does for a minimized
// window.
func (e Extent2D) IsZero() bool {
	return e.Width <= 0 || e.Height <= 0
}

// Format is a pixel format. Values match VkFormat.
type Format int32

const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8UNorm Format = 37
	FormatR8G8B8A8SRGB  Format = 43
	FormatB8G8R8A8UNorm Format = 44
	FormatB8G8R8A8SRGB  Format = 50
)

// ColorSpace is a presentation color space. Values match VkColorSpaceKHR.
type ColorSpace int32

const (
	ColorSpaceSRGBNonlinear ColorSpace = 0
)

// PresentMode selects how images are queued for display. Values match
// VkPresentModeKHR.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFIFO:
		return "fifo"
	case PresentModeFIFORelaxed:
		return "fifo_relaxed"
	}
	return "unknown"
}

// SurfaceFormat pairs a pixel format with the color space it is presented in.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// SurfaceCapabilities is what the presentation engine allows for a surface at
// the time it was queried.
type SurfaceCapabilities struct {
	MinImageCount int
	// MaxImageCount of 0 means there is no upper bound.
	MaxImageCount int

	// CurrentExtent.Width is UndefinedExtent when the application picks the
	// extent.
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

// Status is the non-error outcome of an acquire or present.
type Status int

const (
	StatusSuccess Status = iota
	StatusSuboptimal
	StatusOutOfDate
	StatusTimeout
	StatusNotReady
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out_of_date"
	case StatusTimeout:
		return "timeout"
	case StatusNotReady:
		return "not_ready"
	}
	return "unknown"
}

// Viewport is a dynamic viewport rectangle with a depth range.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Rect2D is an integer rectangle, used for scissors and render areas.
type Rect2D struct {
	X, Y   int
	Extent Extent2D
}

// ClearColor is an RGBA float clear value.
type ClearColor [4]float32
