package terrain

import "testing"

func TestCurveEvaluate(t *testing.T) {
	c := NewCurve(
		Keyframe{Time: 1, Value: 1},
		Keyframe{Time: 0, Value: 0},
		Keyframe{Time: 0.25, Value: 0},
	)

	tests := []struct {
		name string
		t    float32
		want float32
	}{
		{"below range", -1, 0},
		{"first key", 0, 0},
		{"flat water band", 0.125, 0},
		{"middle of ramp", 0.625, 0.5},
		{"last key", 1, 1},
		{"above range", 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Evaluate(tt.t); got != tt.want {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestCurveEmptyIsIdentity(t *testing.T) {
	var c Curve
	if got := c.Evaluate(0.37); got != 0.37 {
		t.Errorf("empty curve Evaluate(0.37) = %v", got)
	}
	if got := LinearCurve().Evaluate(0.25); got != 0.25 {
		t.Errorf("LinearCurve().Evaluate(0.25) = %v", got)
	}
}

func TestCurveKeysAreCopied(t *testing.T) {
	keys := []Keyframe{{0, 0}, {1, 2}}
	c := NewCurve(keys...)
	keys[1].Value = 100

	if got := c.Evaluate(1); got != 2 {
		t.Errorf("curve changed after caller mutated keys: Evaluate(1) = %v", got)
	}
	c.Keys()[0].Value = 50
	if got := c.Evaluate(0); got != 0 {
		t.Errorf("curve changed through Keys(): Evaluate(0) = %v", got)
	}
}
