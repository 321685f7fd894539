// Package config handles terrain, streaming and presentation settings.
package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/Faultbox/endless-terrain/internal/engine/noise"
	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/internal/game/world"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

// Config holds all settings.
type Config struct {
	Noise     NoiseConfig     `yaml:"noise"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Streaming StreamingConfig `yaml:"streaming"`
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NoiseConfig holds the noise synthesizer parameters.
type NoiseConfig struct {
	Seed        int64      `yaml:"seed"`
	Scale       float64    `yaml:"scale"`
	Octaves     int        `yaml:"octaves"`
	Persistence float64    `yaml:"persistence"`
	Lacunarity  float64    `yaml:"lacunarity"`
	Offset      [2]float32 `yaml:"offset"`
	Mode        string     `yaml:"mode"` // local, global or global_compressed
}

// TerrainConfig holds heightmap and mesh settings.
type TerrainConfig struct {
	Resolution       int                `yaml:"resolution"` // vertices per chunk edge
	HeightMultiplier float32            `yaml:"height_multiplier"`
	HeightCurve      []terrain.Keyframe `yaml:"height_curve"`
	UseFalloff       bool               `yaml:"use_falloff"`
	Regions          []RegionConfig     `yaml:"regions"`
}

// RegionConfig is one color band; Color is #rrggbb or #rrggbbaa.
type RegionConfig struct {
	Name   string  `yaml:"name"`
	Height float32 `yaml:"height"`
	Color  string  `yaml:"color"`
}

// StreamingConfig holds chunk streaming settings.
type StreamingConfig struct {
	LODs          []world.LODInfo `yaml:"lods"`
	MoveThreshold float32         `yaml:"move_threshold"`
	Workers       int             `yaml:"workers"` // 0 means one per CPU
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FPSLimit   int     `yaml:"fps_limit"`
	FOV        float32 `yaml:"fov"`
	FlySpeed   float32 `yaml:"fly_speed"`
	Wireframe  bool    `yaml:"wireframe"`
}

// ServerConfig holds the headless streaming server settings.
type ServerConfig struct {
	Listen      string `yaml:"listen"`
	TickRate    int    `yaml:"tick_rate"` // streaming passes per second
	Compression string `yaml:"compression"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	regions := terrain.DefaultRegions()
	regionCfg := make([]RegionConfig, len(regions))
	for i, r := range regions {
		regionCfg[i] = RegionConfig{Name: r.Name, Height: r.Height, Color: formatHexColor(r.Color)}
	}

	return &Config{
		Noise: NoiseConfig{
			Seed:        0,
			Scale:       50,
			Octaves:     4,
			Persistence: 0.5,
			Lacunarity:  2,
			Mode:        noise.Global.String(),
		},
		Terrain: TerrainConfig{
			Resolution:       241,
			HeightMultiplier: 40,
			HeightCurve: []terrain.Keyframe{
				{Time: 0, Value: 0},
				{Time: 0.4, Value: 0},
				{Time: 1, Value: 1},
			},
			Regions: regionCfg,
		},
		Streaming: StreamingConfig{
			LODs:          world.DefaultLODs(),
			MoveThreshold: world.DefaultMoveThreshold,
		},
		Graphics: GraphicsConfig{
			Width:    1280,
			Height:   720,
			VSync:    true,
			FOV:      60,
			FlySpeed: 120,
		},
		Server: ServerConfig{
			Listen:      "127.0.0.1:8420",
			TickRate:    10,
			Compression: "zstd",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// NoiseParams converts the noise section. Width and Height are left zero.
func (c *Config) NoiseParams() (noise.Params, error) {
	mode, err := noise.ParseMode(c.Noise.Mode)
	if err != nil {
		return noise.Params{}, err
	}
	return noise.Params{
		Seed:        c.Noise.Seed,
		Scale:       c.Noise.Scale,
		Octaves:     c.Noise.Octaves,
		Persistence: c.Noise.Persistence,
		Lacunarity:  c.Noise.Lacunarity,
		Offset:      math.Vec2{X: c.Noise.Offset[0], Y: c.Noise.Offset[1]},
		Mode:        mode,
	}, nil
}

// TerrainSettings converts the noise and terrain sections for the assembler.
func (c *Config) TerrainSettings() (terrain.Settings, error) {
	params, err := c.NoiseParams()
	if err != nil {
		return terrain.Settings{}, err
	}

	regions := make([]terrain.Region, len(c.Terrain.Regions))
	for i, r := range c.Terrain.Regions {
		col, err := parseHexColor(r.Color)
		if err != nil {
			return terrain.Settings{}, fmt.Errorf("region %q: %w", r.Name, err)
		}
		regions[i] = terrain.Region{Name: r.Name, Height: r.Height, Color: col}
	}

	return terrain.Settings{
		Resolution: c.Terrain.Resolution,
		Noise:      params,
		UseFalloff: c.Terrain.UseFalloff,
		Regions:    regions,
	}, nil
}

// HeightCurve builds the configured height curve.
func (c *Config) HeightCurve() terrain.Curve {
	return terrain.NewCurve(c.Terrain.HeightCurve...)
}

// TerrainSource wires an assembler, curve and multiplier for the generators.
func (c *Config) TerrainSource() (*world.TerrainSource, error) {
	settings, err := c.TerrainSettings()
	if err != nil {
		return nil, err
	}
	return &world.TerrainSource{
		Assembler:        terrain.NewAssembler(settings),
		Curve:            c.HeightCurve(),
		HeightMultiplier: c.Terrain.HeightMultiplier,
	}, nil
}

func parseHexColor(s string) (color.RGBA, error) {
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 9) {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(s) == 7 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func formatHexColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
