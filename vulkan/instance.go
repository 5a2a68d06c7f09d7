// Package vulkan implements the gpu contracts on top of vkngwrapper: the
// instance and window surface, the logical device and its queues, swapchain
// presentation, command encoding, and the quad's pipeline and resources.
package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/vkngwrapper/texturedquad/gpu"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

type InstanceOptions struct {
	ApplicationName string
	// Validation enables the Khronos validation layer and routes its
	// messages to the gpu logger. It is skipped with a warning when the
	// layer is not installed.
	Validation bool
}

// Instance owns the Vulkan instance, the debug messenger and the window
// surface.
type Instance struct {
	global core1_0.GlobalDriver
	driver core1_0.CoreInstanceDriver

	debugDriver ext_debug_utils.ExtensionDriver
	messenger   ext_debug_utils.DebugUtilsMessenger

	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface
}

func NewInstance(window *sdl.Window, opts InstanceOptions) (*Instance, error) {
	global, err := core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	inst := &Instance{global: global}
	err = inst.create(window, opts)
	if err != nil {
		inst.Destroy()
		return nil, err
	}

	return inst, nil
}

func (i *Instance) create(window *sdl.Window, opts InstanceOptions) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	sdlExtensions := window.VulkanGetInstanceExtensions()
	extensions, _, err := i.global.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Newf("cannot initialize sdl: missing instance extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	validation := opts.Validation
	if validation {
		validation, err = i.validationAvailable()
		if err != nil {
			return err
		}
	}

	if validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, validationLayers...)
		// Catches messages from instance creation itself.
		instanceOptions.Next = debugMessengerOptions()
	}

	i.driver, _, err = i.global.CreateInstance(nil, instanceOptions)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}

	if validation {
		i.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(i.driver)
		i.messenger, _, err = i.debugDriver.CreateDebugUtilsMessenger(nil, debugMessengerOptions())
		if err != nil {
			return errors.Wrap(err, "create debug messenger")
		}
	}

	i.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(i.driver)
	i.surface, err = vkng_sdl2.CreateSurface(i.driver.Instance(), i.surfaceExtension, window)
	if err != nil {
		return gpu.Mark(err, gpu.ErrSurfaceSetup, "create window surface")
	}

	gpu.Logger().Info("vulkan instance created",
		"extensions", instanceOptions.EnabledExtensionNames,
		"validation", validation)
	return nil
}

func (i *Instance) validationAvailable() (bool, error) {
	layers, _, err := i.global.AvailableLayers()
	if err != nil {
		return false, errors.Wrap(err, "enumerate instance layers")
	}

	for _, layer := range validationLayers {
		_, hasValidation := layers[layer]
		if !hasValidation {
			gpu.Logger().Warn("validation layer not available, install the LunarG Vulkan SDK", "layer", layer)
			return false, nil
		}
	}

	return true, nil
}

// Destroy releases the surface, the messenger and the instance. Every device
// created from the instance must already be destroyed.
func (i *Instance) Destroy() {
	if i.surface.Initialized() {
		i.surfaceExtension.DestroySurface(i.surface, nil)
		i.surface = khr_surface.Surface{}
	}

	if i.messenger.Initialized() {
		i.debugDriver.DestroyDebugUtilsMessenger(i.messenger, nil)
		i.messenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if i.driver != nil {
		i.driver.DestroyInstance(nil)
		i.driver = nil
	}
}
