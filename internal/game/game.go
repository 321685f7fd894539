// Package game runs the interactive terrain viewer loop.
package game

import (
	"fmt"
	gomath "math"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/endless-terrain/internal/config"
	"github.com/Faultbox/endless-terrain/internal/engine/camera"
	"github.com/Faultbox/endless-terrain/internal/engine/debug"
	"github.com/Faultbox/endless-terrain/internal/engine/input"
	"github.com/Faultbox/endless-terrain/internal/engine/renderer"
	"github.com/Faultbox/endless-terrain/internal/engine/scene"
	"github.com/Faultbox/endless-terrain/internal/engine/window"
	"github.com/Faultbox/endless-terrain/internal/game/world"
	"github.com/Faultbox/endless-terrain/internal/logger"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

const title = "Endless Terrain"

// Game is the viewer instance.
type Game struct {
	cfg     *config.Config
	running bool
	log     *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.FlyCamera
	chunks   *scene.ChunkRenderer
	shots    *debug.ScreenshotCapture

	pool    *world.Pool
	manager *world.Manager
	tracker world.MoveTracker

	mouseCaptured bool
}

// New creates the window, GL state and streaming pipeline. Extra renderers,
// such as a websocket hub, receive the same chunk events as the GL renderer.
func New(cfg *config.Config, extra ...world.Renderer) (*Game, error) {
	g := &Game{
		cfg: cfg,
		log: logger.Named("game"),
	}

	g.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Int64("seed", cfg.Noise.Seed),
		zap.String("mode", cfg.Noise.Mode),
	)

	source, err := cfg.TerrainSource()
	if err != nil {
		return nil, fmt.Errorf("terrain settings: %w", err)
	}

	// Create window (this also creates OpenGL context)
	g.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := g.window.Size()
	g.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: scene.DefaultLighting(0).FogColor,
	})
	if err != nil {
		g.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	g.renderer.SetWireframe(cfg.Graphics.Wireframe)

	g.chunks, err = scene.NewChunkRenderer(logger.Named("scene"))
	if err != nil {
		g.window.Close()
		return nil, fmt.Errorf("failed to create chunk renderer: %w", err)
	}

	g.pool = world.NewPool(source, cfg.Streaming.Workers)

	renderers := append(world.Renderers{g.chunks}, extra...)
	g.manager, err = world.New(world.Options{
		LODs:      cfg.Streaming.LODs,
		ChunkSize: source.Assembler.ChunkSize(),
		Generator: g.pool,
		Renderer:  renderers,
		Logger:    logger.Named("world"),
	})
	if err != nil {
		g.pool.Close()
		g.chunks.Destroy()
		g.window.Close()
		return nil, fmt.Errorf("failed to create chunk manager: %w", err)
	}

	g.input = input.New()
	g.tracker = world.MoveTracker{Threshold: cfg.Streaming.MoveThreshold}
	g.shots = debug.NewScreenshotCapture("screenshots", "terrain")

	g.camera = camera.NewFlyCamera()
	g.camera.Speed = cfg.Graphics.FlySpeed
	g.camera.Position.Y = cfg.Terrain.HeightMultiplier * 1.5

	g.log.Info("viewer initialized",
		zap.Float32("chunk_size", g.manager.ChunkSize()),
		zap.Float32("view_distance", g.manager.MaxViewDistance()),
		zap.Int("window_radius", g.manager.ChunksVisibleInViewDist()),
	)
	return g, nil
}

// Run starts the main loop.
func (g *Game) Run() error {
	g.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var minFrame time.Duration
	if g.cfg.Graphics.FPSLimit > 0 {
		minFrame = time.Second / time.Duration(g.cfg.Graphics.FPSLimit)
	}

	g.log.Info("starting viewer loop")

	for g.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		// 1. Process input
		if g.input.Update() {
			g.running = false
			break
		}
		g.handleEvents()

		// 2. Move the viewer and stream chunks
		g.update(dt)

		// 3. Render
		g.render()

		// 4. Present (swap buffers)
		g.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			g.updateTitle(frameCount)
			frameCount = 0
			fpsTimer = time.Now()
		}

		if minFrame > 0 {
			if spare := minFrame - time.Since(now); spare > 0 {
				time.Sleep(spare)
			}
		}
	}

	return nil
}

// Close cleans up viewer resources.
func (g *Game) Close() {
	g.log.Info("closing viewer")

	if g.pool != nil {
		g.pool.Close()
	}
	if g.chunks != nil {
		g.chunks.Destroy()
	}
	if g.window != nil {
		g.window.Close()
	}
}

func (g *Game) handleEvents() {
	for _, event := range g.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			width, height := g.window.Size()
			g.renderer.Resize(width, height)
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_LEFT && !g.mouseCaptured {
				g.setMouseCaptured(true)
			}
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				if g.mouseCaptured {
					g.setMouseCaptured(false)
				} else {
					g.running = false
				}
			case sdl.SCANCODE_F1:
				g.renderer.SetWireframe(!g.renderer.Wireframe())
			case sdl.SCANCODE_F12:
				g.screenshot()
			}
		}
	}
}

func (g *Game) setMouseCaptured(on bool) {
	g.mouseCaptured = on
	g.window.CaptureMouse(on)
}

func (g *Game) update(dt float32) {
	if g.mouseCaptured {
		g.camera.HandleLook(g.input.MouseDX, g.input.MouseDY)
	}
	g.camera.HandleMovement(
		g.input.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S),
		g.input.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A),
		g.input.Axis(sdl.SCANCODE_SPACE, sdl.SCANCODE_LSHIFT),
		dt,
		g.input.IsKeyHeld(sdl.SCANCODE_LCTRL),
	)

	if g.tracker.ShouldUpdate(g.camera.Viewer()) {
		g.manager.Tick(g.camera.Viewer())
	}
	g.pool.Drain()
}

func (g *Game) render() {
	g.renderer.Begin()

	viewDst := g.manager.MaxViewDistance()
	proj := math.Perspective(
		float32(g.cfg.Graphics.FOV*gomath.Pi/180),
		g.renderer.Aspect(),
		0.5,
		viewDst*1.5,
	)
	view := g.camera.ViewMatrix()
	viewProj := proj.Mul(view)

	light := scene.DefaultLighting(viewDst)
	light.CameraPos = g.camera.Position
	g.chunks.Render(viewProj, light)
}

func (g *Game) screenshot() {
	pixels, width, height := g.renderer.ReadPixels()
	name, err := g.shots.CaptureFromPixels(pixels, width, height)
	if err != nil {
		g.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	g.log.Info("screenshot saved", zap.String("file", name))
}

func (g *Game) updateTitle(fps int) {
	stats := g.manager.Stats()
	frame := g.chunks.Stats()
	coord := g.manager.ViewerCoord()
	g.window.SetTitle(fmt.Sprintf("%s | %d fps | chunk %v | %d/%d visible | %d tris | %d pending",
		title, fps, coord, stats.Visible, stats.Chunks, frame.Triangles, g.pool.Pending()))

	g.log.Debug("frame stats",
		zap.Int("fps", fps),
		zap.Int("chunks", stats.Chunks),
		zap.Int("visible", stats.Visible),
		zap.Int("drawn", frame.Chunks),
		zap.Int("mesh_requests", stats.MeshRequests),
		zap.Int("lod_switches", stats.LODSwitches),
	)
}
