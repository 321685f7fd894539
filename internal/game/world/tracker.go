package world

import "github.com/Faultbox/endless-terrain/pkg/math"

// DefaultMoveThreshold is how far the viewer travels between streaming
// passes when no threshold is configured.
const DefaultMoveThreshold = 25

// MoveTracker gates streaming passes so Tick runs only after the viewer has
// moved a meaningful distance. The first call always reports true.
type MoveTracker struct {
	Threshold float32

	last   math.Vec2
	primed bool
}

// ShouldUpdate reports whether pos is farther than Threshold from the last
// accepted position, and if so accepts it.
func (t *MoveTracker) ShouldUpdate(pos math.Vec2) bool {
	threshold := t.Threshold
	if threshold <= 0 {
		threshold = DefaultMoveThreshold
	}
	if t.primed && t.last.Sub(pos).SqrLength() <= threshold*threshold {
		return false
	}
	t.last = pos
	t.primed = true
	return true
}

// Reset forces the next ShouldUpdate to report true.
func (t *MoveTracker) Reset() {
	t.primed = false
}
