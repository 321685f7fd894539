package world

import (
	"testing"

	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

const testChunkSize = 240

func testLODs() []LODInfo {
	return []LODInfo{
		{Level: 0, Threshold: 200},
		{Level: 1, Threshold: 300},
		{Level: 4, Threshold: 450},
	}
}

type heightmapRequest struct {
	center math.Vec2
	done   func(*terrain.Heightmap)
}

type meshRequest struct {
	hm   *terrain.Heightmap
	lod  int
	done func(*terrain.MeshData)
}

// fakeGenerator records requests. With sync set it completes them at once;
// otherwise tests complete them by hand.
type fakeGenerator struct {
	sync       bool
	heightmaps []heightmapRequest
	meshes     []meshRequest
}

func (g *fakeGenerator) RequestHeightmap(center math.Vec2, done func(*terrain.Heightmap)) {
	if g.sync {
		done(&terrain.Heightmap{Center: center})
		return
	}
	g.heightmaps = append(g.heightmaps, heightmapRequest{center, done})
}

func (g *fakeGenerator) RequestMesh(hm *terrain.Heightmap, lod int, done func(*terrain.MeshData)) {
	if g.sync {
		done(&terrain.MeshData{LOD: lod})
		return
	}
	g.meshes = append(g.meshes, meshRequest{hm, lod, done})
}

// completeHeightmaps finishes every queued heightmap request except those
// whose center is in skip.
func (g *fakeGenerator) completeHeightmaps(skip ...math.Vec2) {
	queued := g.heightmaps
	g.heightmaps = nil
outer:
	for _, r := range queued {
		for _, s := range skip {
			if r.center == s {
				g.heightmaps = append(g.heightmaps, r)
				continue outer
			}
		}
		r.done(&terrain.Heightmap{Center: r.center})
	}
}

// completeMesh finishes the queued mesh request for a chunk center and level.
func (g *fakeGenerator) completeMesh(t *testing.T, center math.Vec2, level int) {
	t.Helper()
	for i, r := range g.meshes {
		if r.hm.Center == center && r.lod == level {
			g.meshes = append(g.meshes[:i], g.meshes[i+1:]...)
			r.done(&terrain.MeshData{LOD: level})
			return
		}
	}
	t.Fatalf("no mesh request for %v at level %d", center, level)
}

func (g *fakeGenerator) completeMeshes() {
	for len(g.meshes) > 0 {
		queued := g.meshes
		g.meshes = nil
		for _, r := range queued {
			r.done(&terrain.MeshData{LOD: r.lod})
		}
	}
}

type lodKey struct {
	coord ChunkCoord
	lod   int
}

type recordingRenderer struct {
	textures   map[ChunkCoord]int
	meshes     map[lodKey]int
	shows      []lodKey
	visibility []ChunkCoord
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{
		textures: make(map[ChunkCoord]int),
		meshes:   make(map[lodKey]int),
	}
}

func (r *recordingRenderer) TextureReady(coord ChunkCoord, hm *terrain.Heightmap) {
	r.textures[coord]++
}

func (r *recordingRenderer) MeshReady(coord ChunkCoord, lod int, mesh *terrain.MeshData) {
	r.meshes[lodKey{coord, lod}]++
}

func (r *recordingRenderer) ShowMesh(coord ChunkCoord, lod int) {
	r.shows = append(r.shows, lodKey{coord, lod})
}

func (r *recordingRenderer) SetVisible(coord ChunkCoord, visible bool) {
	r.visibility = append(r.visibility, coord)
}

func (r *recordingRenderer) showCount(coord ChunkCoord) int {
	n := 0
	for _, s := range r.shows {
		if s.coord == coord {
			n++
		}
	}
	return n
}

func newTestManager(t *testing.T, gen Generator, r Renderer, lods []LODInfo) *Manager {
	t.Helper()
	m, err := New(Options{LODs: lods, ChunkSize: testChunkSize, Generator: gen, Renderer: r})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

func center(c ChunkCoord) math.Vec2 {
	return math.Vec2{X: float32(c.X) * testChunkSize, Y: float32(c.Y) * testChunkSize}
}

func mustChunk(t *testing.T, m *Manager, coord ChunkCoord) *Chunk {
	t.Helper()
	c, ok := m.Chunk(coord)
	if !ok {
		t.Fatalf("chunk %v not registered", coord)
	}
	return c
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	gen := &fakeGenerator{}
	tests := []struct {
		name string
		opts Options
	}{
		{"empty lods", Options{ChunkSize: 240, Generator: gen}},
		{"negative level", Options{LODs: []LODInfo{{Level: -1, Threshold: 100}}, ChunkSize: 240, Generator: gen}},
		{"equal thresholds", Options{LODs: []LODInfo{{0, 100}, {1, 100}}, ChunkSize: 240, Generator: gen}},
		{"decreasing thresholds", Options{LODs: []LODInfo{{0, 300}, {1, 200}}, ChunkSize: 240, Generator: gen}},
		{"zero chunk size", Options{LODs: testLODs(), Generator: gen}},
		{"nil generator", Options{LODs: testLODs(), ChunkSize: 240}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

func TestManagerDerivedDistances(t *testing.T) {
	m := newTestManager(t, &fakeGenerator{}, nil, testLODs())
	if got := m.MaxViewDistance(); got != 450 {
		t.Errorf("MaxViewDistance() = %v, want 450", got)
	}
	if got := m.ChunksVisibleInViewDist(); got != 2 {
		t.Errorf("ChunksVisibleInViewDist() = %d, want 2", got)
	}
}

func TestTickCreatesWindow(t *testing.T) {
	tests := []struct {
		name      string
		lods      []LODInfo
		wantCount int
	}{
		{"radius one", []LODInfo{{0, 150}, {1, 300}}, 9},
		{"radius two", testLODs(), 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			m := newTestManager(t, gen, nil, tt.lods)
			m.Tick(math.Vec2{})

			if got := len(m.Chunks()); got != tt.wantCount {
				t.Errorf("chunks = %d, want %d", got, tt.wantCount)
			}
			if got := len(gen.heightmaps); got != tt.wantCount {
				t.Errorf("heightmap requests = %d, want %d", got, tt.wantCount)
			}
			for _, coord := range m.Chunks() {
				if s := mustChunk(t, m, coord).State(); s != HeightmapPending {
					t.Errorf("chunk %v state = %v, want %v", coord, s, HeightmapPending)
				}
			}
			if len(m.Visible()) != 0 {
				t.Errorf("visible = %v before any heightmap arrived", m.Visible())
			}
		})
	}
}

func TestHeightmapRequestedOnce(t *testing.T) {
	gen := &fakeGenerator{}
	m := newTestManager(t, gen, nil, testLODs())

	for i := 0; i < 10; i++ {
		m.Tick(math.Vec2{X: float32(i)})
	}
	if got := len(gen.heightmaps); got != 25 {
		t.Errorf("heightmap requests after 10 ticks = %d, want 25", got)
	}
	if got := m.Stats().HeightmapRequests; got != 25 {
		t.Errorf("Stats().HeightmapRequests = %d, want 25", got)
	}
}

func TestVisibilityAndLODAtOrigin(t *testing.T) {
	gen := &fakeGenerator{sync: true}
	r := newRecordingRenderer()
	m := newTestManager(t, gen, r, testLODs())
	m.Tick(math.Vec2{})

	tests := []struct {
		coord   ChunkCoord
		visible bool
		lod     int
	}{
		{ChunkCoord{0, 0}, true, 0},
		{ChunkCoord{1, 0}, true, 0},
		{ChunkCoord{1, 1}, true, 0},
		{ChunkCoord{-2, 0}, true, 2},
		{ChunkCoord{2, 1}, true, 2},
		{ChunkCoord{2, 2}, false, -1},
		{ChunkCoord{-2, -2}, false, -1},
	}
	for _, tt := range tests {
		c := mustChunk(t, m, tt.coord)
		if c.Visible() != tt.visible {
			t.Errorf("chunk %v visible = %v, want %v", tt.coord, c.Visible(), tt.visible)
		}
		if c.DisplayedLOD() != tt.lod {
			t.Errorf("chunk %v lod = %d, want %d", tt.coord, c.DisplayedLOD(), tt.lod)
		}
	}

	if got := len(m.Visible()); got != 21 {
		t.Errorf("visible chunks = %d, want 21", got)
	}
	for coord, n := range r.textures {
		if n != 1 {
			t.Errorf("TextureReady(%v) called %d times, want 1", coord, n)
		}
	}
	if len(r.textures) != 25 {
		t.Errorf("TextureReady chunks = %d, want 25", len(r.textures))
	}
}

func TestWindowFollowsViewer(t *testing.T) {
	gen := &fakeGenerator{sync: true}
	m := newTestManager(t, gen, nil, testLODs())
	m.Tick(math.Vec2{})

	west := mustChunk(t, m, ChunkCoord{-2, 0})
	if !west.Visible() {
		t.Fatal("west chunk should start visible")
	}

	m.Tick(math.Vec2{X: 241})

	if got := m.ViewerCoord(); got != (ChunkCoord{1, 0}) {
		t.Fatalf("ViewerCoord() = %v, want (1,0)", got)
	}
	if got := len(m.Chunks()); got != 30 {
		t.Errorf("chunks = %d, want 30", got)
	}
	if west.Visible() {
		t.Error("chunk left behind the window is still visible")
	}
	if west.Heightmap() == nil || west.Mesh(2) == nil {
		t.Error("chunk left behind lost its cached data")
	}
	for _, coord := range m.Visible() {
		if coord.X < -1 || coord.X > 3 {
			t.Errorf("chunk %v visible outside the window", coord)
		}
	}
}

func TestHiddenChunkKeepsCacheAndReturns(t *testing.T) {
	gen := &fakeGenerator{sync: true}
	r := newRecordingRenderer()
	m := newTestManager(t, gen, r, testLODs())
	origin := ChunkCoord{0, 0}

	m.Tick(math.Vec2{})
	requests := m.Stats().MeshRequests

	m.Tick(math.Vec2{X: 2000})
	c := mustChunk(t, m, origin)
	if c.Visible() {
		t.Fatal("origin chunk visible with viewer 2000 units away")
	}
	if c.Mesh(0) == nil {
		t.Fatal("origin chunk mesh evicted")
	}

	shows := r.showCount(origin)
	before := m.Stats().MeshRequests
	m.Tick(math.Vec2{})

	if !c.Visible() {
		t.Error("origin chunk did not become visible again")
	}
	// Only the chunks around x=2000 were new; the origin chunks reuse their meshes.
	if got := m.Stats().MeshRequests; got != before {
		t.Errorf("mesh requests on return = %d, want %d", got, before)
	}
	if r.showCount(origin) != shows {
		t.Error("returning to the same LOD should not swap meshes")
	}
	if requests == 0 {
		t.Error("no mesh requests on the first tick")
	}
}

func TestOldMeshKeptWhileNewLODPending(t *testing.T) {
	gen := &fakeGenerator{}
	r := newRecordingRenderer()
	m := newTestManager(t, gen, r, testLODs())
	origin := ChunkCoord{0, 0}

	m.Tick(math.Vec2{})
	gen.completeHeightmaps()
	gen.completeMeshes()

	c := mustChunk(t, m, origin)
	if c.DisplayedLOD() != 0 {
		t.Fatalf("origin lod = %d, want 0", c.DisplayedLOD())
	}

	// Nearest edge 280 units away: LOD index 1.
	m.Tick(math.Vec2{X: 400})

	if c.DisplayedLOD() != 0 || !c.Visible() {
		t.Errorf("old mesh not kept: lod %d visible %v", c.DisplayedLOD(), c.Visible())
	}
	if c.State() != MeshPending {
		t.Errorf("state = %v, want %v", c.State(), MeshPending)
	}
	if !c.MeshRequested(1) {
		t.Fatal("LOD 1 mesh was not requested")
	}

	gen.completeMesh(t, center(origin), 1)
	if c.DisplayedLOD() != 1 {
		t.Errorf("lod after completion = %d, want 1", c.DisplayedLOD())
	}
	if c.State() != MeshReady {
		t.Errorf("state = %v, want %v", c.State(), MeshReady)
	}
}

func TestMeshRequestedOncePerLOD(t *testing.T) {
	gen := &fakeGenerator{}
	m := newTestManager(t, gen, nil, testLODs())

	m.Tick(math.Vec2{})
	gen.completeHeightmaps()
	queued := len(gen.meshes)

	for i := 0; i < 10; i++ {
		m.Tick(math.Vec2{X: float32(i)})
	}
	if len(gen.meshes) != queued {
		t.Errorf("mesh requests = %d after ticks, want %d", len(gen.meshes), queued)
	}
}

func TestStaleMeshCachedWithoutSwap(t *testing.T) {
	gen := &fakeGenerator{}
	r := newRecordingRenderer()
	m := newTestManager(t, gen, r, testLODs())
	origin := ChunkCoord{0, 0}

	m.Tick(math.Vec2{})
	gen.completeHeightmaps()

	// The viewer moves on before the LOD 0 mesh arrives.
	m.Tick(math.Vec2{X: 400})
	gen.completeMesh(t, center(origin), 0)

	c := mustChunk(t, m, origin)
	if c.Mesh(0) == nil {
		t.Error("stale mesh was not cached")
	}
	if r.meshes[lodKey{origin, 0}] != 1 {
		t.Errorf("MeshReady(lod 0) calls = %d, want 1", r.meshes[lodKey{origin, 0}])
	}
	if r.showCount(origin) != 0 || c.DisplayedLOD() != -1 {
		t.Errorf("stale mesh forced a swap: shows %d, lod %d", r.showCount(origin), c.DisplayedLOD())
	}

	// Completion for a chunk that left the window is cached silently.
	m.Tick(math.Vec2{X: 10000})
	gen.completeMesh(t, center(origin), 1)
	if c.Mesh(1) == nil {
		t.Error("out-of-window mesh was not cached")
	}
	if r.showCount(origin) != 0 || c.Visible() {
		t.Error("out-of-window completion changed what is shown")
	}
}

func TestNeverCompletingHeightmapStaysInvisible(t *testing.T) {
	gen := &fakeGenerator{}
	m := newTestManager(t, gen, nil, testLODs())
	origin := ChunkCoord{0, 0}

	m.Tick(math.Vec2{})
	gen.completeHeightmaps(center(origin))
	gen.completeMeshes()
	for i := 0; i < 5; i++ {
		m.Tick(math.Vec2{X: float32(i * 10)})
		gen.completeMeshes()
	}

	c := mustChunk(t, m, origin)
	if c.Visible() || c.State() != HeightmapPending {
		t.Errorf("origin chunk visible %v state %v, want hidden and pending", c.Visible(), c.State())
	}
	if got := len(m.Visible()); got != 20 {
		t.Errorf("visible = %d, want 20", got)
	}
}

func TestVisibilityEventsOnlyOnChange(t *testing.T) {
	gen := &fakeGenerator{sync: true}
	r := newRecordingRenderer()
	m := newTestManager(t, gen, r, testLODs())

	m.Tick(math.Vec2{})
	events := len(r.visibility)
	if events != 21 {
		t.Errorf("visibility events = %d, want 21", events)
	}

	m.Tick(math.Vec2{X: 1})
	m.Tick(math.Vec2{Y: 1})
	if len(r.visibility) != events {
		t.Errorf("visibility events after idle ticks = %d, want %d", len(r.visibility), events)
	}
}

func TestLODIndex(t *testing.T) {
	lods := testLODs()
	tests := []struct {
		dist float32
		want int
	}{
		{0, 0},
		{200, 0},
		{200.5, 1},
		{300, 1},
		{301, 2},
		{450, 2},
		{5000, 2},
	}
	prev := 0
	for _, tt := range tests {
		got := lodIndex(lods, tt.dist)
		if got != tt.want {
			t.Errorf("lodIndex(%v) = %d, want %d", tt.dist, got, tt.want)
		}
		if got < prev {
			t.Errorf("lodIndex(%v) = %d decreased from %d", tt.dist, got, prev)
		}
		prev = got
	}
}

func TestChunkOutOfTableLODPanics(t *testing.T) {
	c := newChunk(ChunkCoord{}, testChunkSize, 3)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for LOD index outside the table")
		}
	}()
	c.Mesh(3)
}

func TestChunkStateString(t *testing.T) {
	if got := MeshPending.String(); got != "mesh-pending" {
		t.Errorf("MeshPending.String() = %q", got)
	}
	if got := ChunkState(42).String(); got != "ChunkState(42)" {
		t.Errorf("ChunkState(42).String() = %q", got)
	}
}

func TestRenderersFanOut(t *testing.T) {
	a, b := newRecordingRenderer(), newRecordingRenderer()
	rs := Renderers{a, b}
	coord := ChunkCoord{1, 2}

	rs.TextureReady(coord, nil)
	rs.MeshReady(coord, 1, nil)
	rs.ShowMesh(coord, 1)
	rs.SetVisible(coord, true)

	for i, r := range []*recordingRenderer{a, b} {
		if r.textures[coord] != 1 || r.meshes[lodKey{coord, 1}] != 1 || len(r.shows) != 1 || len(r.visibility) != 1 {
			t.Errorf("renderer %d missed calls", i)
		}
	}
}
