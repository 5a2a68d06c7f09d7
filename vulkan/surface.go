package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/texturedquad/gpu"
)

// Surface presents a device's images to the instance's window surface.
type Surface struct {
	device *Device
}

var _ gpu.Surface = (*Surface)(nil)

func NewSurface(device *Device) *Surface {
	return &Surface{device: device}
}

func (s *Surface) Capabilities() (gpu.SurfaceCapabilities, error) {
	inst := s.device.instance
	caps, _, err := inst.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(inst.surface, s.device.physicalDevice)
	if err != nil {
		return gpu.SurfaceCapabilities{}, errors.Wrap(err, "query surface capabilities")
	}
	return capabilitiesOf(caps), nil
}

func (s *Surface) Formats() ([]gpu.SurfaceFormat, error) {
	inst := s.device.instance
	formats, _, err := inst.surfaceExtension.GetPhysicalDeviceSurfaceFormats(inst.surface, s.device.physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "query surface formats")
	}

	result := make([]gpu.SurfaceFormat, 0, len(formats))
	for _, format := range formats {
		result = append(result, surfaceFormatOf(format))
	}
	return result, nil
}

func (s *Surface) PresentModes() ([]gpu.PresentMode, error) {
	inst := s.device.instance
	modes, _, err := inst.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(inst.surface, s.device.physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "query present modes")
	}

	result := make([]gpu.PresentMode, 0, len(modes))
	for _, mode := range modes {
		result = append(result, gpu.PresentMode(mode))
	}
	return result, nil
}

func (s *Surface) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	inst := s.device.instance
	// The transform is re-read so a rotated display gets the right one.
	caps, _, err := inst.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(inst.surface, s.device.physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "query surface capabilities")
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int

	families := s.device.families
	if *families.GraphicsFamily != *families.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, *families.GraphicsFamily, *families.PresentFamily)
	}

	handle, _, err := s.device.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: inst.surface,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      core1_0.Format(info.Format.Format),
		ImageColorSpace:  khr_surface.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      vkExtent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   caps.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(info.PresentMode),
		Clipped:        true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}

	return &swapchain{device: s.device, handle: handle}, nil
}

func (s *Surface) SwapchainImages(sc gpu.Swapchain) ([]gpu.Image, error) {
	images, _, err := s.device.swapchainExtension.GetSwapchainImages(swapchainOf(sc))
	if err != nil {
		return nil, errors.Wrap(err, "get swapchain images")
	}

	result := make([]gpu.Image, 0, len(images))
	for _, image := range images {
		result = append(result, image)
	}
	return result, nil
}

func (s *Surface) CreateImageView(image gpu.Image, format gpu.Format) (gpu.ImageView, error) {
	handle, err := s.device.createImageView(image.(core1_0.Image), core1_0.Format(format))
	if err != nil {
		return nil, err
	}
	return &imageView{device: s.device, handle: handle}, nil
}

func (s *Surface) CreateFramebuffer(pass gpu.RenderPass, view gpu.ImageView, extent gpu.Extent2D) (gpu.Framebuffer, error) {
	handle, _, err := s.device.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  renderPassOf(pass),
		Layers:      1,
		Attachments: []core1_0.ImageView{imageViewOf(view)},
		Width:       extent.Width,
		Height:      extent.Height,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}
	return &framebuffer{device: s.device, handle: handle}, nil
}

func (s *Surface) AcquireNextImage(sc gpu.Swapchain, timeout time.Duration, signal gpu.Semaphore) (int, gpu.Status, error) {
	sem := semaphoreOf(signal)
	imageIndex, res, err := s.device.swapchainExtension.AcquireNextImage(swapchainOf(sc), timeout, &sem, nil)
	status, err := statusOf(res, err)
	return imageIndex, status, err
}

func (s *Surface) Present(queue gpu.Queue, sc gpu.Swapchain, imageIndex int, wait gpu.Semaphore) (gpu.Status, error) {
	res, err := s.device.swapchainExtension.QueuePresent(queue.(core1_0.Queue), khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{semaphoreOf(wait)},
		Swapchains:     []khr_swapchain.Swapchain{swapchainOf(sc)},
		ImageIndices:   []int{imageIndex},
	})
	return statusOf(res, err)
}
