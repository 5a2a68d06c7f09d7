// Package renderer ties the presentation surface set, the frame ring and the
// scheduler into one render session with an explicit lifetime.
package renderer

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/vkngwrapper/texturedquad/frame"
	"github.com/vkngwrapper/texturedquad/gpu"
	"github.com/vkngwrapper/texturedquad/recorder"
	"github.com/vkngwrapper/texturedquad/swapchain"
)

type Options struct {
	FramesInFlight int
	FenceTimeout   time.Duration
	Preferences    swapchain.Preferences
	ClearColor     gpu.ClearColor
}

// Context owns one render session. Resources handed to Own are destroyed by
// Close after the session's own, last owned first.
type Context struct {
	id uuid.UUID

	device    gpu.Device
	set       *swapchain.Set
	ring      *frame.Ring
	scheduler *frame.Scheduler

	owned  []gpu.Resource
	closed bool
}

// New builds the surface set and the frame ring and wires the scheduler. On
// failure everything New created is released; the caller's resources are
// not touched.
func New(device gpu.Device, surface gpu.Surface, encoder gpu.Encoder, window frame.Window, pipeline recorder.Pipeline, content recorder.Content, opts Options) (*Context, error) {
	c := &Context{
		id:     uuid.New(),
		device: device,
	}

	var err error
	c.set, err = swapchain.New(device, surface, window, pipeline.RenderPass(), opts.Preferences)
	if err != nil {
		return nil, errors.Wrap(err, "create surface set")
	}

	c.ring, err = frame.NewRing(device, opts.FramesInFlight)
	if err != nil {
		c.set.Teardown()
		return nil, errors.Wrap(err, "create frame ring")
	}

	rec := recorder.New(encoder, pipeline, content, opts.ClearColor)
	c.scheduler = frame.NewScheduler(device, surface, c.set, c.ring, rec, window, frame.Options{
		Timeout: opts.FenceTimeout,
	})

	gpu.Logger().Info("render session started",
		"session", c.id,
		"frames_in_flight", c.ring.Len(),
		"images", c.set.Len(),
		"extent", c.set.Extent())
	return c, nil
}

func (c *Context) ID() uuid.UUID {
	return c.id
}

func (c *Context) Stats() *frame.Stats {
	return c.scheduler.Stats()
}

func (c *Context) SurfaceSet() *swapchain.Set {
	return c.set
}

// Own hands resources to the context for destruction on Close.
func (c *Context) Own(resources ...gpu.Resource) {
	c.owned = append(c.owned, resources...)
}

// Run drives the scheduler until the window closes, ctx is cancelled or a
// frame fails.
func (c *Context) Run(ctx context.Context) error {
	if c.closed {
		return errors.New("render session is closed")
	}
	return c.scheduler.Run(ctx)
}

// Close waits for the device to go idle, then destroys the frame ring, the
// surface set and every owned resource. Teardown happens even when the idle
// wait fails; that error is returned. Close is safe to call twice.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.device.WaitIdle()
	if err != nil {
		err = errors.Wrap(err, "wait for device idle")
		gpu.Logger().Error("device did not go idle before teardown", "session", c.id, "error", err)
	}

	c.ring.Destroy()
	c.set.Teardown()

	for i := len(c.owned) - 1; i >= 0; i-- {
		c.owned[i].Destroy()
	}
	c.owned = nil

	gpu.Logger().Info("render session closed", "session", c.id)
	return err
}
