package math

import "math"

// Rect is an axis-aligned rectangle on the XZ plane, stored as center and
// half extents.
type Rect struct {
	Center Vec2
	Extent Vec2
}

// RectFromCenter returns a square rectangle of the given side length.
func RectFromCenter(center Vec2, size float32) Rect {
	return Rect{Center: center, Extent: Vec2{size / 2, size / 2}}
}

// Min returns the lower corner.
func (r Rect) Min() Vec2 {
	return r.Center.Sub(r.Extent)
}

// Max returns the upper corner.
func (r Rect) Max() Vec2 {
	return r.Center.Add(r.Extent)
}

// SqrDistance returns the squared distance from p to the nearest point of r.
// Points inside the rectangle are at distance zero.
func (r Rect) SqrDistance(p Vec2) float32 {
	dx := axisGap(p.X, r.Center.X, r.Extent.X)
	dy := axisGap(p.Y, r.Center.Y, r.Extent.Y)
	return dx*dx + dy*dy
}

// Distance returns the distance from p to the nearest edge of r.
func (r Rect) Distance(p Vec2) float32 {
	return float32(math.Sqrt(float64(r.SqrDistance(p))))
}

func axisGap(p, center, extent float32) float32 {
	d := p - center
	if d < 0 {
		d = -d
	}
	if d <= extent {
		return 0
	}
	return d - extent
}
