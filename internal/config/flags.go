package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagSeed       = flag.Int64("seed", 0, "Noise seed (0 keeps the configured seed)")
	flagMode       = flag.String("mode", "", "Normalization mode: local, global or global_compressed")
	flagFalloff    = flag.Bool("falloff", false, "Subtract the island falloff mask")
	flagWorkers    = flag.Int("workers", -1, "Generation workers (0 = one per CPU)")
	flagListen     = flag.String("listen", "", "Websocket listen address")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagWireframe  = flag.Bool("wireframe", false, "Render chunk meshes as wireframe")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed != 0 {
		cfg.Noise.Seed = *flagSeed
	}
	if *flagMode != "" {
		cfg.Noise.Mode = *flagMode
	}
	if *flagFalloff {
		cfg.Terrain.UseFalloff = true
	}
	if *flagWorkers >= 0 {
		cfg.Streaming.Workers = *flagWorkers
	}
	if *flagListen != "" {
		cfg.Server.Listen = *flagListen
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagWireframe {
		cfg.Graphics.Wireframe = true
	}
}
