package quad

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"

	"github.com/vkngwrapper/texturedquad/gpu"
)

// UniformBufferObject is the std140 layout of the vertex shader's binding 0.
type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// Transforms spins the model 90 degrees per second about Z and views it from
// (2,2,2) with a 45 degree perspective sized to extent.
func Transforms(elapsed time.Duration, extent gpu.Extent2D) UniformBufferObject {
	angle := float32(elapsed.Seconds()) * mgl32.DegToRad(90)

	aspect := float32(1)
	if !extent.IsZero() {
		aspect = float32(extent.Width) / float32(extent.Height)
	}

	proj := mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 10)
	// clip space Y points down
	proj[5] *= -1

	return UniformBufferObject{
		Model: mgl32.HomogRotate3DZ(angle),
		View: mgl32.LookAtV(
			mgl32.Vec3{2, 2, 2},
			mgl32.Vec3{0, 0, 0},
			mgl32.Vec3{0, 0, 1},
		),
		Proj: proj,
	}
}

// Clock measures animation time from its creation.
type Clock struct {
	start time.Duration
}

func NewClock() *Clock {
	return &Clock{start: hrtime.Now()}
}

func (c *Clock) Elapsed() time.Duration {
	return hrtime.Since(c.start)
}
