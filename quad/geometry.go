// Package quad holds the content drawn by the renderer: a colored, textured
// quad spinning about Z, its texture, and the shaders that draw it.
package quad

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex matches the vertex shader inputs: location 0 position, location 1
// color, location 2 texture coordinate. It is tightly packed, 28 bytes.
type Vertex struct {
	Position mgl32.Vec2
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

var Vertices = []Vertex{
	{Position: mgl32.Vec2{-0.5, -0.5}, Color: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{1, 0}},
	{Position: mgl32.Vec2{0.5, -0.5}, Color: mgl32.Vec3{0, 1, 0}, TexCoord: mgl32.Vec2{0, 0}},
	{Position: mgl32.Vec2{0.5, 0.5}, Color: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{0, 1}},
	{Position: mgl32.Vec2{-0.5, 0.5}, Color: mgl32.Vec3{1, 1, 1}, TexCoord: mgl32.Vec2{1, 1}},
}

// Indices are 16 bit, two counter-clockwise triangles.
var Indices = []uint16{0, 1, 2, 2, 3, 0}
