package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/texturedquad/gpu"
	"github.com/vkngwrapper/texturedquad/quad"
	"github.com/vkngwrapper/texturedquad/recorder"
)

const textureFormat = core1_0.FormatR8G8B8A8SRGB

// QuadContent owns the quad's geometry, texture and per-slot uniform buffers,
// and binds them for each frame.
type QuadContent struct {
	device   *Device
	pipeline *Pipeline
	clock    *quad.Clock

	vertexBuffer       core1_0.Buffer
	vertexBufferMemory core1_0.DeviceMemory
	indexBuffer        core1_0.Buffer
	indexBufferMemory  core1_0.DeviceMemory

	uniformBuffers       []core1_0.Buffer
	uniformBuffersMemory []core1_0.DeviceMemory

	textureImage       core1_0.Image
	textureImageMemory core1_0.DeviceMemory
	textureImageView   core1_0.ImageView
	textureSampler     core1_0.Sampler

	descriptorPool core1_0.DescriptorPool
	descriptorSets []core1_0.DescriptorSet
}

var _ recorder.Content = (*QuadContent)(nil)

// NewQuadContent uploads the quad and texture and allocates one uniform
// buffer and descriptor set per frame slot.
func NewQuadContent(device *Device, pipeline *Pipeline, texture *quad.Texture, slots int, clock *quad.Clock) (*QuadContent, error) {
	c := &QuadContent{device: device, pipeline: pipeline, clock: clock}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"vertex buffer", c.createVertexBuffer},
		{"index buffer", c.createIndexBuffer},
		{"uniform buffers", func() error { return c.createUniformBuffers(slots) }},
		{"texture image", func() error { return c.createTextureImage(texture) }},
		{"texture sampler", c.createSampler},
		{"descriptor pool", func() error { return c.createDescriptorPool(slots) }},
		{"descriptor sets", func() error { return c.createDescriptorSets(slots) }},
	}

	for _, step := range steps {
		err := step.fn()
		if err != nil {
			c.Destroy()
			return nil, errors.Wrapf(err, "create %s", step.name)
		}
	}

	return c, nil
}

func (c *QuadContent) createVertexBuffer() error {
	var err error
	c.vertexBuffer, c.vertexBufferMemory, err = c.device.uploadBuffer(quad.Vertices, core1_0.BufferUsageVertexBuffer)
	return err
}

func (c *QuadContent) createIndexBuffer() error {
	var err error
	c.indexBuffer, c.indexBufferMemory, err = c.device.uploadBuffer(quad.Indices, core1_0.BufferUsageIndexBuffer)
	return err
}

func (c *QuadContent) createUniformBuffers(slots int) error {
	bufferSize := int(unsafe.Sizeof(quad.UniformBufferObject{}))

	for i := 0; i < slots; i++ {
		buffer, memory, err := c.device.createBuffer(bufferSize, core1_0.BufferUsageUniformBuffer, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
		if err != nil {
			c.device.destroyBuffer(buffer, memory)
			return err
		}

		c.uniformBuffers = append(c.uniformBuffers, buffer)
		c.uniformBuffersMemory = append(c.uniformBuffersMemory, memory)
	}

	return nil
}

func (c *QuadContent) createTextureImage(texture *quad.Texture) error {
	stagingBuffer, stagingMemory, err := c.device.createBuffer(texture.Size(), core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	defer c.device.destroyBuffer(stagingBuffer, stagingMemory)
	if err != nil {
		return err
	}

	err = writeData(c.device.driver, stagingMemory, 0, texture.Pixels)
	if err != nil {
		return err
	}

	c.textureImage, c.textureImageMemory, err = c.device.createImage(texture.Width, texture.Height,
		textureFormat,
		core1_0.ImageUsageTransferDst|core1_0.ImageUsageSampled)
	if err != nil {
		return err
	}

	err = c.device.transitionImageLayout(c.textureImage, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal)
	if err != nil {
		return err
	}

	err = c.device.copyBufferToImage(stagingBuffer, c.textureImage, texture.Width, texture.Height)
	if err != nil {
		return err
	}

	err = c.device.transitionImageLayout(c.textureImage, core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		return err
	}

	c.textureImageView, err = c.device.createImageView(c.textureImage, textureFormat)
	return err
}

func (c *QuadContent) createSampler() error {
	var err error
	c.textureSampler, _, err = c.device.driver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,

		AnisotropyEnable: true,
		MaxAnisotropy:    c.device.properties.Limits.MaxSamplerAnisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,

		MipmapMode: core1_0.SamplerMipmapModeLinear,
		MinLod:     0,
		MaxLod:     0,
	})
	return err
}

func (c *QuadContent) createDescriptorPool(slots int) error {
	var err error
	c.descriptorPool, _, err = c.device.driver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: slots,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: slots,
			},
			{
				Type:            core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: slots,
			},
		},
	})
	return err
}

func (c *QuadContent) createDescriptorSets(slots int) error {
	var allocLayouts []core1_0.DescriptorSetLayout
	for i := 0; i < slots; i++ {
		allocLayouts = append(allocLayouts, c.pipeline.descriptorSetLayout)
	}

	var err error
	c.descriptorSets, _, err = c.device.driver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: c.descriptorPool,
		SetLayouts:     allocLayouts,
	})
	if err != nil {
		return err
	}

	for i := 0; i < slots; i++ {
		err = c.device.driver.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
			{
				DstSet:          c.descriptorSets[i],
				DstBinding:      0,
				DstArrayElement: 0,

				DescriptorType: core1_0.DescriptorTypeUniformBuffer,

				BufferInfo: []core1_0.DescriptorBufferInfo{
					{
						Buffer: c.uniformBuffers[i],
						Offset: 0,
						Range:  int(unsafe.Sizeof(quad.UniformBufferObject{})),
					},
				},
			},
			{
				DstSet:          c.descriptorSets[i],
				DstBinding:      1,
				DstArrayElement: 0,

				DescriptorType: core1_0.DescriptorTypeCombinedImageSampler,

				ImageInfo: []core1_0.DescriptorImageInfo{
					{
						ImageView:   c.textureImageView,
						Sampler:     c.textureSampler,
						ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
					},
				},
			},
		}, nil)
		if err != nil {
			return err
		}
	}

	return nil
}

// Bind writes the slot's transforms and binds geometry and descriptors. The
// slot's fence has been waited, so its uniform buffer is not in use.
func (c *QuadContent) Bind(_ gpu.Encoder, buffer gpu.CommandBuffer, slot int, extent gpu.Extent2D) (recorder.Draw, error) {
	if slot < 0 || slot >= len(c.uniformBuffers) {
		return recorder.Draw{}, errors.Newf("frame slot %d out of range [0,%d)", slot, len(c.uniformBuffers))
	}

	ubo := quad.Transforms(c.clock.Elapsed(), extent)
	err := writeData(c.device.driver, c.uniformBuffersMemory[slot], 0, &ubo)
	if err != nil {
		return recorder.Draw{}, errors.Wrap(err, "write uniform buffer")
	}

	cb := commandBufferOf(buffer)
	driver := c.device.driver
	driver.CmdBindVertexBuffers(cb, 0, []core1_0.Buffer{c.vertexBuffer}, []int{0})
	driver.CmdBindIndexBuffer(cb, c.indexBuffer, 0, core1_0.IndexTypeUInt16)
	driver.CmdBindDescriptorSets(cb, core1_0.PipelineBindPointGraphics, c.pipeline.pipeline.layout, 0, []core1_0.DescriptorSet{
		c.descriptorSets[slot],
	}, nil)

	return recorder.Draw{Indexed: true, IndexCount: len(quad.Indices), InstanceCount: 1}, nil
}

// Destroy releases everything the content created. Descriptor sets go with
// their pool.
func (c *QuadContent) Destroy() {
	driver := c.device.driver

	if c.descriptorPool.Initialized() {
		driver.DestroyDescriptorPool(c.descriptorPool, nil)
		c.descriptorPool = core1_0.DescriptorPool{}
		c.descriptorSets = nil
	}

	if c.textureSampler.Initialized() {
		driver.DestroySampler(c.textureSampler, nil)
		c.textureSampler = core1_0.Sampler{}
	}
	if c.textureImageView.Initialized() {
		driver.DestroyImageView(c.textureImageView, nil)
		c.textureImageView = core1_0.ImageView{}
	}
	if c.textureImage.Initialized() {
		driver.DestroyImage(c.textureImage, nil)
		c.textureImage = core1_0.Image{}
	}
	if c.textureImageMemory.Initialized() {
		driver.FreeMemory(c.textureImageMemory, nil)
		c.textureImageMemory = core1_0.DeviceMemory{}
	}

	for i := range c.uniformBuffers {
		c.device.destroyBuffer(c.uniformBuffers[i], c.uniformBuffersMemory[i])
	}
	c.uniformBuffers = nil
	c.uniformBuffersMemory = nil

	c.device.destroyBuffer(c.indexBuffer, c.indexBufferMemory)
	c.indexBuffer, c.indexBufferMemory = core1_0.Buffer{}, core1_0.DeviceMemory{}
	c.device.destroyBuffer(c.vertexBuffer, c.vertexBufferMemory)
	c.vertexBuffer, c.vertexBufferMemory = core1_0.Buffer{}, core1_0.DeviceMemory{}
}
