// Package lighting provides lighting utilities for 3D rendering.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/endless-terrain/pkg/math"
)

// SunDirection converts azimuth/elevation angles in degrees to a unit vector
// pointing towards the sun. Azimuth rotates around the Y axis starting at +Z,
// elevation is measured up from the horizon.
func SunDirection(azimuth, elevation float32) math.Vec3 {
	azRad := float64(azimuth) * gomath.Pi / 180.0
	elRad := float64(elevation) * gomath.Pi / 180.0

	return math.Vec3{
		X: float32(gomath.Cos(elRad) * gomath.Sin(azRad)),
		Y: float32(gomath.Sin(elRad)),
		Z: float32(gomath.Cos(elRad) * gomath.Cos(azRad)),
	}
}

// SunRays returns the direction sunlight travels, from the sun to the ground.
func SunRays(azimuth, elevation float32) [3]float32 {
	d := SunDirection(azimuth, elevation)
	return [3]float32{-d.X, -d.Y, -d.Z}
}
