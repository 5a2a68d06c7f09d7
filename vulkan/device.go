package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/texturedquad/gpu"
)

var deviceExtensions = []string{khr_swapchain.ExtensionName}

type queueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *queueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Device is the logical device with its graphics and present queues and the
// command pool frame command buffers come from. It implements gpu.Device and
// gpu.Encoder.
type Device struct {
	instance *Instance

	physicalDevice core1_0.PhysicalDevice
	properties     *core1_0.PhysicalDeviceProperties
	families       queueFamilyIndices

	driver             core1_0.CoreDeviceDriver
	swapchainExtension khr_swapchain.ExtensionDriver

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue
	commandPool   core1_0.CommandPool
}

var (
	_ gpu.Device  = (*Device)(nil)
	_ gpu.Encoder = (*Device)(nil)
)

func NewDevice(instance *Instance) (*Device, error) {
	d := &Device{instance: instance}

	err := d.pickPhysicalDevice()
	if err != nil {
		return nil, err
	}

	err = d.createLogicalDevice()
	if err != nil {
		d.Destroy()
		return nil, err
	}

	return d, nil
}

func (d *Device) pickPhysicalDevice() error {
	physicalDevices, _, err := d.instance.driver.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	for _, device := range physicalDevices {
		if d.isDeviceSuitable(device) {
			d.physicalDevice = device
			break
		}
	}

	if !d.physicalDevice.Initialized() {
		return errors.New("failed to find a suitable GPU")
	}

	d.properties, err = d.instance.driver.GetPhysicalDeviceProperties(d.physicalDevice)
	if err != nil {
		return errors.Wrap(err, "get physical device properties")
	}

	d.families, err = d.findQueueFamilies(d.physicalDevice)
	if err != nil {
		return err
	}

	gpu.Logger().Info("physical device selected",
		"name", d.properties.DeviceName,
		"graphics_family", *d.families.GraphicsFamily,
		"present_family", *d.families.PresentFamily)
	return nil
}

func (d *Device) isDeviceSuitable(device core1_0.PhysicalDevice) bool {
	indices, err := d.findQueueFamilies(device)
	if err != nil {
		return false
	}

	if !d.checkDeviceExtensionSupport(device) {
		return false
	}

	formats, _, err := d.instance.surfaceExtension.GetPhysicalDeviceSurfaceFormats(d.instance.surface, device)
	if err != nil || len(formats) == 0 {
		return false
	}
	presentModes, _, err := d.instance.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(d.instance.surface, device)
	if err != nil || len(presentModes) == 0 {
		return false
	}

	features := d.instance.driver.GetPhysicalDeviceFeatures(device)
	return indices.IsComplete() && features.SamplerAnisotropy
}

func (d *Device) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := d.instance.driver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return false
	}

	for _, extension := range deviceExtensions {
		_, hasExtension := extensions[extension]
		if !hasExtension {
			return false
		}
	}

	return true
}

func (d *Device) findQueueFamilies(device core1_0.PhysicalDevice) (queueFamilyIndices, error) {
	indices := queueFamilyIndices{}
	queueFamilies := d.instance.driver.GetPhysicalDeviceQueueFamilyProperties(device)

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, _, err := d.instance.surfaceExtension.GetPhysicalDeviceSurfaceSupport(d.instance.surface, device, queueFamilyIdx)
		if err != nil {
			return indices, errors.Wrap(err, "query surface support")
		}

		if supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

func (d *Device) createLogicalDevice() error {
	uniqueQueueFamilies := []int{*d.families.GraphicsFamily}
	if uniqueQueueFamilies[0] != *d.families.PresentFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *d.families.PresentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Needed on portability implementations such as MoltenVK
	extensions, _, err := d.instance.driver.EnumerateDeviceExtensionProperties(d.physicalDevice)
	if err != nil {
		return errors.Wrap(err, "enumerate device extensions")
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	d.driver, _, err = d.instance.driver.CreateDevice(d.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueFamilyOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}

	d.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(d.driver)
	d.graphicsQueue = d.driver.GetQueue(*d.families.GraphicsFamily, 0)
	d.presentQueue = d.driver.GetQueue(*d.families.PresentFamily, 0)

	d.commandPool, _, err = d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: *d.families.GraphicsFamily,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	return nil
}

// Destroy releases the command pool and the device. Everything allocated
// from the device must already be destroyed.
func (d *Device) Destroy() {
	if d.driver == nil {
		return
	}

	if d.commandPool.Initialized() {
		d.driver.DestroyCommandPool(d.commandPool, nil)
		d.commandPool = core1_0.CommandPool{}
	}

	d.driver.DestroyDevice(nil)
	d.driver = nil
}

func (d *Device) GraphicsQueue() gpu.Queue {
	return d.graphicsQueue
}

func (d *Device) PresentQueue() gpu.Queue {
	return d.presentQueue
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	var flags core1_0.FenceCreateFlags
	if signaled {
		flags = core1_0.FenceCreateSignaled
	}

	handle, _, err := d.driver.CreateFence(nil, core1_0.FenceCreateInfo{Flags: flags})
	if err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	return &fence{device: d, handle: handle}, nil
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	handle, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}
	return &semaphore{device: d, handle: handle}, nil
}

func (d *Device) AllocateCommandBuffers(count int) ([]gpu.CommandBuffer, error) {
	handles, _, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}

	buffers := make([]gpu.CommandBuffer, 0, len(handles))
	for _, handle := range handles {
		buffers = append(buffers, &commandBuffer{device: d, handle: handle})
	}
	return buffers, nil
}

func (d *Device) WaitForFence(f gpu.Fence, timeout time.Duration) (bool, error) {
	res, err := d.driver.WaitForFences(true, timeout, fenceOf(f))
	if err != nil {
		return false, err
	}
	return res != core1_0.VKTimeout, nil
}

func (d *Device) ResetFence(f gpu.Fence) error {
	_, err := d.driver.ResetFences(fenceOf(f))
	return err
}

func (d *Device) ResetCommandBuffer(buffer gpu.CommandBuffer) error {
	_, err := d.driver.ResetCommandBuffer(commandBufferOf(buffer), 0)
	return err
}

func (d *Device) Submit(queue gpu.Queue, info gpu.SubmitInfo) error {
	submit := core1_0.SubmitInfo{}
	for _, s := range info.WaitSemaphores {
		submit.WaitSemaphores = append(submit.WaitSemaphores, semaphoreOf(s))
	}
	for _, stage := range info.WaitStages {
		submit.WaitDstStageMask = append(submit.WaitDstStageMask, core1_0.PipelineStageFlags(stage))
	}
	for _, buffer := range info.CommandBuffers {
		submit.CommandBuffers = append(submit.CommandBuffers, commandBufferOf(buffer))
	}
	for _, s := range info.SignalSemaphores {
		submit.SignalSemaphores = append(submit.SignalSemaphores, semaphoreOf(s))
	}

	var signal *core1_0.Fence
	if info.Fence != nil {
		handle := fenceOf(info.Fence)
		signal = &handle
	}

	_, err := d.driver.QueueSubmit(queue.(core1_0.Queue), signal, submit)
	return err
}

func (d *Device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return err
}
