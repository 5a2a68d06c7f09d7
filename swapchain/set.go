// Package swapchain owns the presentable image chain of a window surface: the
// swapchain object, one view per image, and one framebuffer per view. The set
// is built whole, torn down whole, and rebuilt whenever the surface goes stale.
package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/vkngwrapper/texturedquad/gpu"
)

// Window reports the drawable size used when the surface leaves the extent to
// the application.
type Window interface {
	FramebufferSize() gpu.Extent2D
}

// Set is the presentation surface set.
type Set struct {
	device     gpu.Device
	surface    gpu.Surface
	window     Window
	renderPass gpu.RenderPass
	prefs      Preferences

	swapchain    gpu.Swapchain
	images       []gpu.Image
	views        []gpu.ImageView
	framebuffers []gpu.Framebuffer

	format      gpu.SurfaceFormat
	presentMode gpu.PresentMode
	extent      gpu.Extent2D
	generation  uuid.UUID
	builds      int
}

// SelectFormat picks the surface format a set built with prefs would use. The
// render pass handed to New must be created for this format.
func SelectFormat(surface gpu.Surface, prefs Preferences) (gpu.SurfaceFormat, error) {
	formats, err := surface.Formats()
	if err != nil {
		return gpu.SurfaceFormat{}, gpu.Mark(err, gpu.ErrSurfaceSetup, "query surface formats")
	}
	if len(formats) == 0 {
		return gpu.SurfaceFormat{}, errors.Mark(errors.New("surface reports no formats"), gpu.ErrSurfaceSetup)
	}

	return ChooseSurfaceFormat(formats, prefs.Format), nil
}

// New builds a set. Framebuffers are bound to renderPass, which outlives the
// set.
func New(device gpu.Device, surface gpu.Surface, window Window, renderPass gpu.RenderPass, prefs Preferences) (*Set, error) {
	s := &Set{
		device:     device,
		surface:    surface,
		window:     window,
		renderPass: renderPass,
		prefs:      prefs,
	}

	err := s.Build()
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Build queries the surface and creates the swapchain, views and
// framebuffers. If anything fails, whatever was created is destroyed and the
// set is left empty.
func (s *Set) Build() error {
	if s.swapchain != nil {
		return errors.Mark(errors.New("build called on a live surface set"), gpu.ErrSurfaceSetup)
	}

	err := s.build()
	if err != nil {
		s.Teardown()
		return errors.Mark(err, gpu.ErrSurfaceSetup)
	}

	s.builds++
	s.generation = uuid.New()
	gpu.Logger().Info("surface set built",
		"generation", s.generation.String(),
		"images", len(s.images),
		"width", s.extent.Width,
		"height", s.extent.Height,
		"format", int32(s.format.Format),
		"present_mode", s.presentMode.String())

	return nil
}

func (s *Set) build() error {
	caps, err := s.surface.Capabilities()
	if err != nil {
		return errors.Wrap(err, "query surface capabilities")
	}

	formats, err := s.surface.Formats()
	if err != nil {
		return errors.Wrap(err, "query surface formats")
	}
	if len(formats) == 0 {
		return errors.New("surface reports no formats")
	}

	presentModes, err := s.surface.PresentModes()
	if err != nil {
		return errors.Wrap(err, "query surface present modes")
	}
	if len(presentModes) == 0 {
		return errors.New("surface reports no present modes")
	}

	format := ChooseSurfaceFormat(formats, s.prefs.Format)
	if s.builds > 0 && format.Format != s.format.Format {
		return errors.Newf("surface format changed from %d to %d, render pass is incompatible", s.format.Format, format.Format)
	}
	presentMode := ChoosePresentMode(presentModes, s.prefs.PresentMode)
	extent := ChooseExtent(caps, s.window.FramebufferSize())
	if extent.IsZero() {
		return errors.Newf("cannot build swapchain with extent %dx%d", extent.Width, extent.Height)
	}

	s.swapchain, err = s.surface.CreateSwapchain(gpu.SwapchainCreateInfo{
		MinImageCount: ChooseImageCount(caps),
		Format:        format,
		Extent:        extent,
		PresentMode:   presentMode,
	})
	if err != nil {
		s.swapchain = nil
		return errors.Wrap(err, "create swapchain")
	}
	s.format = format
	s.presentMode = presentMode
	s.extent = extent

	images, err := s.surface.SwapchainImages(s.swapchain)
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}
	s.images = images

	for i, image := range images {
		view, err := s.surface.CreateImageView(image, format.Format)
		if err != nil {
			return errors.Wrapf(err, "create view for swapchain image %d", i)
		}
		s.views = append(s.views, view)
	}

	for i, view := range s.views {
		framebuffer, err := s.surface.CreateFramebuffer(s.renderPass, view, extent)
		if err != nil {
			return errors.Wrapf(err, "create framebuffer for swapchain image %d", i)
		}
		s.framebuffers = append(s.framebuffers, framebuffer)
	}

	return nil
}

// Teardown destroys framebuffers, then views, then the swapchain. Calling it
// on an empty set does nothing.
func (s *Set) Teardown() {
	if s.swapchain == nil && len(s.views) == 0 && len(s.framebuffers) == 0 {
		return
	}

	for _, framebuffer := range s.framebuffers {
		framebuffer.Destroy()
	}
	s.framebuffers = nil

	for _, view := range s.views {
		view.Destroy()
	}
	s.views = nil

	if s.swapchain != nil {
		s.swapchain.Destroy()
		s.swapchain = nil
	}
	s.images = nil

	gpu.Logger().Debug("surface set destroyed", "generation", s.generation.String())
}

// Rebuild drains the device, then tears the set down and builds it again
// against the surface as it is now.
func (s *Set) Rebuild() error {
	err := s.device.WaitIdle()
	if err != nil {
		return gpu.Mark(err, gpu.ErrSurfaceSetup, "wait for device idle before rebuilding swapchain")
	}

	s.Teardown()
	return s.Build()
}

// Live reports whether the set currently owns a swapchain.
func (s *Set) Live() bool {
	return s.swapchain != nil
}

func (s *Set) Swapchain() gpu.Swapchain {
	return s.swapchain
}

// Len is the number of images in the chain.
func (s *Set) Len() int {
	return len(s.images)
}

func (s *Set) Image(index int) gpu.Image {
	return s.images[index]
}

func (s *Set) View(index int) gpu.ImageView {
	return s.views[index]
}

func (s *Set) Framebuffer(index int) gpu.Framebuffer {
	return s.framebuffers[index]
}

func (s *Set) Extent() gpu.Extent2D {
	return s.extent
}

func (s *Set) Format() gpu.SurfaceFormat {
	return s.format
}

func (s *Set) PresentMode() gpu.PresentMode {
	return s.presentMode
}

// Generation identifies the current build. It changes on every Build.
func (s *Set) Generation() uuid.UUID {
	return s.generation
}

// Builds counts successful builds over the set's lifetime.
func (s *Set) Builds() int {
	return s.builds
}
