package world

import "fmt"

// LODInfo is one row of the detail table: chunks whose nearest edge lies
// within Threshold of the viewer use mesh simplification Level.
type LODInfo struct {
	Level     int     `yaml:"lod"`
	Threshold float32 `yaml:"threshold"`
}

// DefaultLODs returns the table used when no configuration overrides it.
func DefaultLODs() []LODInfo {
	return []LODInfo{
		{Level: 0, Threshold: 200},
		{Level: 1, Threshold: 300},
		{Level: 4, Threshold: 450},
	}
}

// ValidateLODs checks that a detail table is usable by the manager.
func ValidateLODs(lods []LODInfo) error {
	if len(lods) == 0 {
		return fmt.Errorf("lod table is empty")
	}
	for i, l := range lods {
		if l.Level < 0 {
			return fmt.Errorf("lod %d: negative level %d", i, l.Level)
		}
		if l.Threshold <= 0 {
			return fmt.Errorf("lod %d: threshold %g must be positive", i, l.Threshold)
		}
		if i > 0 && l.Threshold <= lods[i-1].Threshold {
			return fmt.Errorf("lod %d: threshold %g not above previous %g", i, l.Threshold, lods[i-1].Threshold)
		}
	}
	return nil
}

// lodIndex picks the table row for a chunk at distance d. Rows are scanned
// in order; the coarsest row wins once every other threshold is exceeded.
func lodIndex(lods []LODInfo, d float32) int {
	index := 0
	for i := 0; i < len(lods)-1; i++ {
		if d > lods[i].Threshold {
			index = i + 1
		} else {
			break
		}
	}
	return index
}
