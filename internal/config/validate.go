package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/endless-terrain/internal/engine/noise"
	"github.com/Faultbox/endless-terrain/internal/game/world"
)

// MaxLODLevel is the coarsest mesh simplification a table may request.
const MaxLODLevel = 6

// Validate reports every semantic problem with the configuration.
func (c *Config) Validate() error {
	var errs []error

	if _, err := noise.ParseMode(c.Noise.Mode); err != nil {
		errs = append(errs, fmt.Errorf("noise.mode: %w", err))
	}
	if c.Noise.Octaves < 0 {
		errs = append(errs, fmt.Errorf("noise.octaves: %d is negative", c.Noise.Octaves))
	}
	if c.Noise.Lacunarity < 1 {
		errs = append(errs, fmt.Errorf("noise.lacunarity: %g is below 1", c.Noise.Lacunarity))
	}
	if c.Noise.Persistence < 0 || c.Noise.Persistence > 1 {
		errs = append(errs, fmt.Errorf("noise.persistence: %g outside [0,1]", c.Noise.Persistence))
	}

	if c.Terrain.Resolution < 3 {
		errs = append(errs, fmt.Errorf("terrain.resolution: %d is below 3", c.Terrain.Resolution))
	}
	for i, r := range c.Terrain.Regions {
		if _, err := parseHexColor(r.Color); err != nil {
			errs = append(errs, fmt.Errorf("terrain.regions[%d]: %w", i, err))
		}
	}

	if err := world.ValidateLODs(c.Streaming.LODs); err != nil {
		errs = append(errs, fmt.Errorf("streaming.lods: %w", err))
	}
	for i, l := range c.Streaming.LODs {
		if l.Level > MaxLODLevel {
			errs = append(errs, fmt.Errorf("streaming.lods[%d]: level %d above %d", i, l.Level, MaxLODLevel))
		}
	}
	if c.Streaming.MoveThreshold <= 0 {
		errs = append(errs, fmt.Errorf("streaming.move_threshold: %g must be positive", c.Streaming.MoveThreshold))
	}
	if c.Streaming.Workers < 0 {
		errs = append(errs, fmt.Errorf("streaming.workers: %d is negative", c.Streaming.Workers))
	}

	if c.Server.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("server.tick_rate: %d must be positive", c.Server.TickRate))
	}

	return errors.Join(errs...)
}
