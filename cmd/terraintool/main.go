// terraintool is a CLI utility for inspecting generated terrain offline.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/endless-terrain/internal/config"
	"github.com/Faultbox/endless-terrain/internal/engine/noise"
	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/internal/engine/texture"
	"github.com/Faultbox/endless-terrain/internal/game/world"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "noise":
		cmdNoise(args)
	case "falloff":
		cmdFalloff(args)
	case "mesh":
		cmdMesh(args)
	case "stream":
		cmdStream(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terraintool - endless terrain utility

Usage:
  terraintool <command> [options]

Commands:
  noise   [-config f] [-size n] [-seed s] [-mode m] [-out f.png]   Render a noise field
  falloff [-size n] [-out f.png]                                   Render the falloff mask
  mesh    [-config f] [-x x] [-z z] [-lod n] [-out f.obj]          Export one chunk mesh
  stream  [-config f] [-steps n] [-step d] [-dx x] [-dz z]         Walk the viewer and print stats

Examples:
  terraintool noise -size 512 -mode local -out noise.png
  terraintool mesh -x 240 -z 0 -lod 2 -out chunk.obj
  terraintool stream -steps 20 -step 120`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		fail("%v", err)
	}
	return cfg
}

func cmdNoise(args []string) {
	fs := flag.NewFlagSet("noise", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file")
	size := fs.Int("size", 241, "Field width and height")
	seed := fs.Int64("seed", 0, "Seed override (0 keeps the configured seed)")
	mode := fs.String("mode", "", "Normalization mode override")
	out := fs.String("out", "noise.png", "Output PNG")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	if *seed != 0 {
		cfg.Noise.Seed = *seed
	}
	if *mode != "" {
		cfg.Noise.Mode = *mode
	}

	params, err := cfg.NoiseParams()
	if err != nil {
		fail("%v", err)
	}
	params.Width, params.Height = *size, *size

	field := noise.Generate(params)
	if err := texture.WritePNG(*out, texture.FromField(field)); err != nil {
		fail("%v", err)
	}

	lo, hi := field.MinMax()
	fmt.Printf("Wrote %s (%dx%d, %s, range %.4f..%.4f)\n", *out, *size, *size, params.Mode, lo, hi)
}

func cmdFalloff(args []string) {
	fs := flag.NewFlagSet("falloff", flag.ExitOnError)
	size := fs.Int("size", 241, "Mask width and height")
	out := fs.String("out", "falloff.png", "Output PNG")
	_ = fs.Parse(args)

	if *size <= 0 {
		fail("size must be positive")
	}
	if err := texture.WritePNG(*out, texture.FromField(noise.Falloff(*size))); err != nil {
		fail("%v", err)
	}
	fmt.Printf("Wrote %s (%dx%d)\n", *out, *size, *size)
}

func cmdMesh(args []string) {
	fs := flag.NewFlagSet("mesh", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file")
	x := fs.Float64("x", 0, "Chunk center X")
	z := fs.Float64("z", 0, "Chunk center Z")
	lod := fs.Int("lod", 0, "Mesh LOD level")
	out := fs.String("out", "chunk.obj", "Output OBJ")
	_ = fs.Parse(args)

	if *lod < 0 || *lod > config.MaxLODLevel {
		fail("lod must be in 0..%d", config.MaxLODLevel)
	}

	cfg := loadConfig(*cfgPath)
	source, err := cfg.TerrainSource()
	if err != nil {
		fail("%v", err)
	}

	hm := source.Heightmap(math.Vec2{X: float32(*x), Y: float32(*z)})
	mesh := source.Mesh(hm, *lod)

	if dir := filepath.Dir(*out); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fail("creating output dir: %v", err)
		}
	}
	f, err := os.Create(*out)
	if err != nil {
		fail("%v", err)
	}
	defer f.Close()

	if err := terrain.WriteOBJ(f, mesh, fmt.Sprintf("chunk_%g_%g_lod%d", *x, *z, *lod)); err != nil {
		fail("writing OBJ: %v", err)
	}
	fmt.Printf("Wrote %s (%d vertices, %d triangles)\n", *out, len(mesh.Vertices), mesh.TriangleCount())
}

func cmdStream(args []string) {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file")
	steps := fs.Int("steps", 10, "Number of viewer moves")
	step := fs.Float64("step", 100, "Distance per move")
	dx := fs.Float64("dx", 1, "Walk direction X")
	dz := fs.Float64("dz", 0, "Walk direction Z")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	source, err := cfg.TerrainSource()
	if err != nil {
		fail("%v", err)
	}

	pool := world.NewPool(source, cfg.Streaming.Workers)
	defer pool.Close()

	manager, err := world.New(world.Options{
		LODs:      cfg.Streaming.LODs,
		ChunkSize: source.Assembler.ChunkSize(),
		Generator: pool,
	})
	if err != nil {
		fail("%v", err)
	}

	dir := math.Vec2{X: float32(*dx), Y: float32(*dz)}.Normalize()
	if dir == (math.Vec2{}) {
		fail("walk direction must be non-zero")
	}

	fmt.Printf("chunk size %.0f, view distance %.0f, window radius %d\n",
		manager.ChunkSize(), manager.MaxViewDistance(), manager.ChunksVisibleInViewDist())
	fmt.Printf("%4s %10s %10s %8s %7s %7s %6s %7s\n", "step", "x", "z", "coord", "chunks", "visible", "meshes", "lodswap")

	for i := 0; i <= *steps; i++ {
		viewer := dir.Scale(float32(float64(i) * *step))
		manager.Tick(viewer)
		// Settle: every completion may issue follow-up mesh requests.
		for pool.Pending() > 0 {
			if pool.Drain() == 0 {
				time.Sleep(time.Millisecond)
			}
		}

		s := manager.Stats()
		fmt.Printf("%4d %10.1f %10.1f %8v %7d %7d %6d %7d\n",
			i, viewer.X, viewer.Y, manager.ViewerCoord(), s.Chunks, s.Visible, s.MeshesCached, s.LODSwitches)
	}
}
