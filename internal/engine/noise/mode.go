package noise

import "fmt"

// Mode selects how accumulated octave sums are mapped into height values.
type Mode int

const (
	// Local remaps by the observed min/max of a single call. Output spans
	// exactly [0,1], but independently generated tiles will not line up.
	Local Mode = iota
	// Global divides by the theoretical amplitude sum scaled by 0.9, so every
	// tile shares one scale.
	Global
	// GlobalCompressed divides by twice the amplitude sum scaled by 1/1.75,
	// a flatter alternative to Global.
	GlobalCompressed
)

var modeNames = map[Mode]string{
	Local:            "local",
	Global:           "global",
	GlobalCompressed: "global_compressed",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a configuration name into a Mode.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return Local, fmt.Errorf("unknown normalization mode %q", name)
}

// Tiles reports whether neighbouring fields generated in this mode join
// without seams.
func (m Mode) Tiles() bool {
	return m == Global || m == GlobalCompressed
}
