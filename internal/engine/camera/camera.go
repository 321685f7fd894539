// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/Faultbox/endless-terrain/pkg/math"
)

// FlyCamera moves freely above the terrain. Its ground projection is the
// viewer position that drives chunk streaming.
type FlyCamera struct {
	Position math.Vec3

	// Orientation in radians. Yaw 0 looks down -Z; positive pitch looks up.
	Yaw   float32
	Pitch float32

	// Constraints
	MinPitch float32
	MaxPitch float32

	// Speed in world units per second; Boost multiplies it.
	Speed           float32
	Boost           float32
	LookSensitivity float32
}

// NewFlyCamera creates a fly camera hovering above the origin.
func NewFlyCamera() *FlyCamera {
	return &FlyCamera{
		Position:        math.Vec3{X: 0, Y: 80, Z: 0},
		Pitch:           -0.3,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		Speed:           120,
		Boost:           4,
		LookSensitivity: 0.003,
	}
}

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	return math.Vec3{
		X: float32(cp * gomath.Sin(float64(c.Yaw))),
		Y: float32(gomath.Sin(float64(c.Pitch))),
		Z: float32(-cp * gomath.Cos(float64(c.Yaw))),
	}
}

// Right returns the unit strafe direction on the XZ plane.
func (c *FlyCamera) Right() math.Vec3 {
	return math.Vec3{
		X: float32(gomath.Cos(float64(c.Yaw))),
		Z: float32(gomath.Sin(float64(c.Yaw))),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Position.Add(c.Forward()), math.Up)
}

// Viewer returns the camera's ground position (world X, Z).
func (c *FlyCamera) Viewer() math.Vec2 {
	return c.Position.XZ()
}

// HandleLook turns the camera by a mouse delta in pixels.
func (c *FlyCamera) HandleLook(deltaX, deltaY float32) {
	c.Yaw += deltaX * c.LookSensitivity
	c.Pitch -= deltaY * c.LookSensitivity

	// Clamp pitch
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleMovement moves along the view direction, the strafe axis and world
// up. Inputs are in [-1,1]; dt is in seconds.
func (c *FlyCamera) HandleMovement(forward, right, up, dt float32, boost bool) {
	speed := c.Speed * dt
	if boost {
		speed *= c.Boost
	}

	move := c.Forward().Scale(forward).
		Add(c.Right().Scale(right)).
		Add(math.Up.Scale(up))
	c.Position = c.Position.Add(move.Scale(speed))
}
