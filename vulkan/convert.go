package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/texturedquad/gpu"
)

// statusOf folds the result codes acquire and present may return into a
// Status. Any other failure is returned as the error.
func statusOf(res common.VkResult, err error) (gpu.Status, error) {
	switch res {
	case core1_0.VKSuccess:
		return gpu.StatusSuccess, nil
	case khr_swapchain.VKSuboptimal:
		return gpu.StatusSuboptimal, nil
	case khr_swapchain.VKErrorOutOfDate:
		return gpu.StatusOutOfDate, nil
	case core1_0.VKTimeout:
		return gpu.StatusTimeout, nil
	case core1_0.VKNotReady:
		return gpu.StatusNotReady, nil
	}

	if err == nil {
		err = errors.Newf("unexpected result %s", res)
	}
	return gpu.StatusSuccess, err
}

func extentOf(e core1_0.Extent2D) gpu.Extent2D {
	return gpu.Extent2D{Width: e.Width, Height: e.Height}
}

func vkExtent(e gpu.Extent2D) core1_0.Extent2D {
	return core1_0.Extent2D{Width: e.Width, Height: e.Height}
}

func rectOf(r gpu.Rect2D) core1_0.Rect2D {
	return core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: r.X, Y: r.Y},
		Extent: vkExtent(r.Extent),
	}
}

func capabilitiesOf(c *khr_surface.SurfaceCapabilities) gpu.SurfaceCapabilities {
	return gpu.SurfaceCapabilities{
		MinImageCount:  c.MinImageCount,
		MaxImageCount:  c.MaxImageCount,
		CurrentExtent:  extentOf(c.CurrentExtent),
		MinImageExtent: extentOf(c.MinImageExtent),
		MaxImageExtent: extentOf(c.MaxImageExtent),
	}
}

func surfaceFormatOf(f khr_surface.SurfaceFormat) gpu.SurfaceFormat {
	return gpu.SurfaceFormat{
		Format:     gpu.Format(f.Format),
		ColorSpace: gpu.ColorSpace(f.ColorSpace),
	}
}
