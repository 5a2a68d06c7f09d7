package frame

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/texturedquad/gpu"
)

// Slot is the set of objects one in-flight frame needs. The fence starts
// signaled so the first wait on a fresh slot returns at once.
type Slot struct {
	CommandBuffer  gpu.CommandBuffer
	ImageAvailable gpu.Semaphore
	RenderFinished gpu.Semaphore
	InFlight       gpu.Fence
}

// Ring is a fixed set of frame slots used round robin. It lives as long as
// the device and is not touched by surface rebuilds.
type Ring struct {
	slots []*Slot
}

func NewRing(device gpu.Device, n int) (*Ring, error) {
	if n < 1 {
		return nil, errors.Newf("frame ring needs at least one slot, got %d", n)
	}

	r := &Ring{}
	err := r.allocate(device, n)
	if err != nil {
		r.Destroy()
		return nil, errors.Mark(err, gpu.ErrSurfaceSetup)
	}

	gpu.Logger().Debug("frame ring allocated", "slots", n)
	return r, nil
}

func (r *Ring) allocate(device gpu.Device, n int) error {
	buffers, err := device.AllocateCommandBuffers(n)
	if err != nil {
		return errors.Wrap(err, "allocate frame command buffers")
	}

	for i := 0; i < n; i++ {
		slot := &Slot{CommandBuffer: buffers[i]}
		r.slots = append(r.slots, slot)
	}

	for i, slot := range r.slots {
		slot.ImageAvailable, err = device.CreateSemaphore()
		if err != nil {
			return errors.Wrapf(err, "create image available semaphore for frame %d", i)
		}

		slot.RenderFinished, err = device.CreateSemaphore()
		if err != nil {
			return errors.Wrapf(err, "create render finished semaphore for frame %d", i)
		}

		slot.InFlight, err = device.CreateFence(true)
		if err != nil {
			return errors.Wrapf(err, "create in flight fence for frame %d", i)
		}
	}

	return nil
}

func (r *Ring) Len() int {
	return len(r.slots)
}

func (r *Ring) Slot(index int) *Slot {
	return r.slots[index]
}

// Destroy releases every slot. The device must be idle.
func (r *Ring) Destroy() {
	for _, slot := range r.slots {
		if slot.InFlight != nil {
			slot.InFlight.Destroy()
		}
		if slot.RenderFinished != nil {
			slot.RenderFinished.Destroy()
		}
		if slot.ImageAvailable != nil {
			slot.ImageAvailable.Destroy()
		}
		if slot.CommandBuffer != nil {
			slot.CommandBuffer.Destroy()
		}
	}
	r.slots = nil
}
