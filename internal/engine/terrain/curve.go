package terrain

import "sort"

// Keyframe is one control point of a height curve.
type Keyframe struct {
	Time  float32 `yaml:"t"`
	Value float32 `yaml:"v"`
}

// Curve remaps normalized heights, typically to flatten water and sharpen
// peaks. It is immutable and safe to share across goroutines.
type Curve struct {
	keys []Keyframe
}

// NewCurve builds a piecewise-linear curve. Keys are copied and sorted by time.
func NewCurve(keys ...Keyframe) Curve {
	sorted := append([]Keyframe(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	return Curve{keys: sorted}
}

// LinearCurve returns the identity curve.
func LinearCurve() Curve {
	return NewCurve(Keyframe{0, 0}, Keyframe{1, 1})
}

// Keys returns a copy of the control points.
func (c Curve) Keys() []Keyframe {
	return append([]Keyframe(nil), c.keys...)
}

// Evaluate returns the curve value at t, clamping outside the key range.
// A curve without keys is the identity.
func (c Curve) Evaluate(t float32) float32 {
	n := len(c.keys)
	if n == 0 {
		return t
	}
	if t <= c.keys[0].Time {
		return c.keys[0].Value
	}
	if t >= c.keys[n-1].Time {
		return c.keys[n-1].Value
	}

	// First key strictly after t; t lies in [keys[i-1], keys[i]).
	i := sort.Search(n, func(i int) bool { return c.keys[i].Time > t })
	a, b := c.keys[i-1], c.keys[i]
	span := b.Time - a.Time
	if span == 0 {
		return b.Value
	}
	f := (t - a.Time) / span
	return a.Value + (b.Value-a.Value)*f
}
