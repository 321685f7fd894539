package world

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Faultbox/endless-terrain/internal/engine/noise"
	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

type countingSource struct {
	heightmaps atomic.Int32
	meshes     atomic.Int32
}

func (s *countingSource) Heightmap(center math.Vec2) *terrain.Heightmap {
	s.heightmaps.Add(1)
	return &terrain.Heightmap{Center: center}
}

func (s *countingSource) Mesh(hm *terrain.Heightmap, lod int) *terrain.MeshData {
	s.meshes.Add(1)
	return &terrain.MeshData{LOD: lod}
}

// drainUntil drains the pool until it has nothing in flight.
func drainUntil(t *testing.T, p *Pool, draining *bool) int {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	total := 0
	for p.Pending() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("pool still has %d pending requests", p.Pending())
		}
		*draining = true
		total += p.Drain()
		*draining = false
		time.Sleep(time.Millisecond)
	}
	return total
}

func TestPoolRunsCallbacksOnlyInDrain(t *testing.T) {
	src := &countingSource{}
	p := NewPool(src, 4)
	defer p.Close()

	var draining bool
	var outside atomic.Int32
	calls := 0
	check := func() {
		if !draining {
			outside.Add(1)
		}
		calls++
	}

	for i := 0; i < 20; i++ {
		p.RequestHeightmap(math.Vec2{X: float32(i)}, func(*terrain.Heightmap) { check() })
		p.RequestMesh(&terrain.Heightmap{}, i%3, func(*terrain.MeshData) { check() })
	}

	if got := drainUntil(t, p, &draining); got != 40 {
		t.Errorf("drained %d completions, want 40", got)
	}
	if calls != 40 {
		t.Errorf("callbacks = %d, want 40", calls)
	}
	if outside.Load() != 0 {
		t.Errorf("%d callbacks ran outside Drain", outside.Load())
	}
	if src.heightmaps.Load() != 20 || src.meshes.Load() != 20 {
		t.Errorf("source calls = %d heightmaps, %d meshes", src.heightmaps.Load(), src.meshes.Load())
	}
}

// gatedSource blocks every call until open is closed.
type gatedSource struct {
	countingSource
	open chan struct{}
}

func (s *gatedSource) Heightmap(center math.Vec2) *terrain.Heightmap {
	<-s.open
	return s.countingSource.Heightmap(center)
}

func TestPoolRequestsDoNotBlockOnBusyWorkers(t *testing.T) {
	const requests = 5000

	src := &gatedSource{open: make(chan struct{})}
	p := NewPool(src, 2)
	defer p.Close()

	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i := 0; i < requests; i++ {
			p.RequestHeightmap(math.Vec2{X: float32(i)}, func(*terrain.Heightmap) {})
		}
	}()

	select {
	case <-submitted:
	case <-time.After(5 * time.Second):
		close(src.open)
		t.Fatal("requests blocked while workers were busy")
	}
	if got := p.Pending(); got != requests {
		t.Errorf("Pending() = %d, want %d", got, requests)
	}

	close(src.open)
	var draining bool
	if got := drainUntil(t, p, &draining); got != requests {
		t.Errorf("drained %d completions, want %d", got, requests)
	}
	if src.heightmaps.Load() != requests {
		t.Errorf("source ran %d heightmaps, want %d", src.heightmaps.Load(), requests)
	}
}

func TestPoolCloseFinishesQueuedJobs(t *testing.T) {
	src := &countingSource{}
	p := NewPool(src, 1)
	for i := 0; i < 50; i++ {
		p.RequestMesh(&terrain.Heightmap{}, 0, func(*terrain.MeshData) {})
	}
	p.Close()

	if src.meshes.Load() != 50 {
		t.Errorf("source ran %d meshes before Close returned, want 50", src.meshes.Load())
	}
	if got := p.Drain(); got != 50 {
		t.Errorf("Drain() after Close = %d, want 50", got)
	}
}

func TestPoolIgnoresRequestsAfterClose(t *testing.T) {
	p := NewPool(&countingSource{}, 1)
	p.Close()
	p.Close()

	p.RequestHeightmap(math.Vec2{}, func(*terrain.Heightmap) {
		t.Error("callback ran after Close")
	})
	if p.Pending() != 0 {
		t.Errorf("Pending() = %d after Close, want 0", p.Pending())
	}
	if p.Drain() != 0 {
		t.Error("Drain() returned completions after Close")
	}
}

func TestInlineCompletesImmediately(t *testing.T) {
	g := Inline{Source: &countingSource{}}
	done := false
	g.RequestHeightmap(math.Vec2{X: 3}, func(hm *terrain.Heightmap) {
		done = hm.Center.X == 3
	})
	if !done {
		t.Error("Inline did not complete the request synchronously")
	}
}

func TestManagerWithPoolStreamsTerrain(t *testing.T) {
	src := &TerrainSource{
		Assembler: terrain.NewAssembler(terrain.Settings{
			Resolution: 9,
			Noise: noise.Params{
				Seed:        7,
				Scale:       10,
				Octaves:     2,
				Persistence: 0.5,
				Lacunarity:  2,
				Mode:        noise.Global,
			},
		}),
		Curve:            terrain.LinearCurve(),
		HeightMultiplier: 5,
	}
	p := NewPool(src, 2)
	defer p.Close()

	lods := []LODInfo{{Level: 0, Threshold: 10}, {Level: 2, Threshold: 13}}
	m, err := New(Options{LODs: lods, ChunkSize: src.Assembler.ChunkSize(), Generator: p})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.Tick(math.Vec2{})
	var draining bool
	drainUntil(t, p, &draining)

	// Window radius round(13/8) = 2; the four corners lie beyond 13 units.
	if got := len(m.Chunks()); got != 25 {
		t.Errorf("chunks = %d, want 25", got)
	}
	if got := len(m.Visible()); got != 21 {
		t.Errorf("visible = %d, want 21", got)
	}

	origin := mustChunk(t, m, ChunkCoord{})
	if origin.DisplayedLOD() != 0 {
		t.Fatalf("origin lod = %d, want 0", origin.DisplayedLOD())
	}
	if got := len(origin.Mesh(0).Vertices); got != 81 {
		t.Errorf("origin vertices = %d, want 81", got)
	}
	far := mustChunk(t, m, ChunkCoord{X: 2})
	if far.DisplayedLOD() != 1 || far.Mesh(1).LOD != 2 {
		t.Errorf("far chunk lod index %d", far.DisplayedLOD())
	}
}

func TestMoveTracker(t *testing.T) {
	var tr MoveTracker
	if !tr.ShouldUpdate(math.Vec2{}) {
		t.Fatal("first update should always pass")
	}
	if tr.ShouldUpdate(math.Vec2{X: 25}) {
		t.Error("moving exactly the threshold should not trigger an update")
	}
	if !tr.ShouldUpdate(math.Vec2{X: 15, Y: 20.5}) {
		t.Error("moving past the threshold should trigger an update")
	}
	if tr.ShouldUpdate(math.Vec2{X: 30, Y: 20.5}) {
		t.Error("distance is measured from the last accepted position")
	}

	tr.Reset()
	if !tr.ShouldUpdate(math.Vec2{X: 30, Y: 20.5}) {
		t.Error("Reset should force the next update")
	}

	custom := MoveTracker{Threshold: 2}
	custom.ShouldUpdate(math.Vec2{})
	if !custom.ShouldUpdate(math.Vec2{X: 3}) {
		t.Error("custom threshold ignored")
	}
}
