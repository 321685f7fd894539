// Package main runs a headless chunk streamer that serves meshes to
// websocket viewers.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/endless-terrain/internal/config"
	"github.com/Faultbox/endless-terrain/internal/game/world"
	"github.com/Faultbox/endless-terrain/internal/logger"
	"github.com/Faultbox/endless-terrain/internal/transport/ws"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Endless Terrain Server ===")

	if err := run(cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := cfg.TerrainSource()
	if err != nil {
		return fmt.Errorf("terrain settings: %w", err)
	}

	lods := cfg.Streaming.LODs
	hub, err := ws.NewHub(ws.Options{
		Compression:  cfg.Server.Compression,
		ChunkSize:    source.Assembler.ChunkSize(),
		ViewDistance: lods[len(lods)-1].Threshold,
		Logger:       logger.Named("ws"),
	})
	if err != nil {
		return fmt.Errorf("websocket hub: %w", err)
	}
	defer hub.Close()

	pool := world.NewPool(source, cfg.Streaming.Workers)
	defer pool.Close()

	manager, err := world.New(world.Options{
		LODs:      lods,
		ChunkSize: source.Assembler.ChunkSize(),
		Generator: pool,
		Renderer:  hub,
		Logger:    logger.Named("world"),
	})
	if err != nil {
		return fmt.Errorf("chunk manager: %w", err)
	}

	var stats atomic.Pointer[world.Stats]
	stats.Store(&world.Stats{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.Handler())
	mux.HandleFunc("/stats", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(stats.Load())
	})

	srv := &http.Server{Addr: cfg.Server.Listen, Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Listen), zap.String("compression", cfg.Server.Compression))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Server.TickRate))
	defer ticker.Stop()

	tracker := world.MoveTracker{Threshold: cfg.Streaming.MoveThreshold}
	viewer := math.Vec2{}
	for {
		if pos, ok := hub.Viewer(); ok {
			viewer = pos
		}
		if tracker.ShouldUpdate(viewer) {
			manager.Tick(viewer)
			logger.Debug("tick", zap.Stringer("viewer_coord", manager.ViewerCoord()))
		}
		pool.Drain()
		s := manager.Stats()
		stats.Store(&s)

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err, ok := <-serveErr:
			if ok {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-ticker.C:
		}
	}
}
