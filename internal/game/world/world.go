// Package world streams terrain chunks around a moving viewer: which chunks
// exist, which are visible, and which level of detail each one shows.
package world

import (
	"cmp"
	"fmt"
	gomath "math"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

// Options configure a Manager.
type Options struct {
	LODs      []LODInfo
	ChunkSize float32
	Generator Generator
	Renderer  Renderer // nil means NopRenderer
	Logger    *zap.Logger
}

// Stats summarizes the manager's registry.
type Stats struct {
	Chunks            int
	Visible           int
	HeightmapRequests int
	MeshRequests      int
	MeshesCached      int
	LODSwitches       int
}

// Manager owns the chunk registry. It is not safe for concurrent use: Tick
// and every generator completion must run on one controlling goroutine.
type Manager struct {
	lods        []LODInfo
	chunkSize   float32
	maxViewDst  float32
	visibleDist int

	gen      Generator
	renderer Renderer
	log      *zap.Logger

	chunks  map[ChunkCoord]*Chunk
	visible map[ChunkCoord]struct{}

	viewer      math.Vec2
	viewerCoord ChunkCoord
	ticked      bool

	stats Stats
}

// New creates a manager. The LOD table is copied.
func New(opts Options) (*Manager, error) {
	if err := ValidateLODs(opts.LODs); err != nil {
		return nil, fmt.Errorf("invalid lod table: %w", err)
	}
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %g must be positive", opts.ChunkSize)
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if opts.Renderer == nil {
		opts.Renderer = NopRenderer{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	lods := slices.Clone(opts.LODs)
	maxViewDst := lods[len(lods)-1].Threshold

	return &Manager{
		lods:        lods,
		chunkSize:   opts.ChunkSize,
		maxViewDst:  maxViewDst,
		visibleDist: int(gomath.Round(float64(maxViewDst / opts.ChunkSize))),
		gen:         opts.Generator,
		renderer:    opts.Renderer,
		log:         opts.Logger,
		chunks:      make(map[ChunkCoord]*Chunk),
		visible:     make(map[ChunkCoord]struct{}),
	}, nil
}

// LODs returns a copy of the detail table.
func (m *Manager) LODs() []LODInfo { return slices.Clone(m.lods) }

// ChunkSize returns the world-space width of a chunk.
func (m *Manager) ChunkSize() float32 { return m.chunkSize }

// MaxViewDistance is the last LOD threshold; chunks beyond it are hidden.
func (m *Manager) MaxViewDistance() float32 { return m.maxViewDst }

// ChunksVisibleInViewDist is the window radius in chunks.
func (m *Manager) ChunksVisibleInViewDist() int { return m.visibleDist }

// ViewerCoord returns the chunk the viewer stood in at the last Tick.
func (m *Manager) ViewerCoord() ChunkCoord { return m.viewerCoord }

// CoordOf returns the chunk coordinate containing a world position.
func (m *Manager) CoordOf(pos math.Vec2) ChunkCoord {
	return ChunkCoord{
		X: int(gomath.Round(float64(pos.X / m.chunkSize))),
		Y: int(gomath.Round(float64(pos.Y / m.chunkSize))),
	}
}

// Chunk looks up a chunk by coordinate.
func (m *Manager) Chunk(coord ChunkCoord) (*Chunk, bool) {
	c, ok := m.chunks[coord]
	return c, ok
}

// Chunks returns every known coordinate in row-major order.
func (m *Manager) Chunks() []ChunkCoord {
	return sortedCoords(m.chunks)
}

// Visible returns the coordinates of currently visible chunks in row-major order.
func (m *Manager) Visible() []ChunkCoord {
	return sortedCoords(m.visible)
}

// Stats returns a snapshot of registry counters.
func (m *Manager) Stats() Stats {
	s := m.stats
	s.Chunks = len(m.chunks)
	s.Visible = len(m.visible)
	s.MeshesCached = 0
	for _, c := range m.chunks {
		for _, slot := range c.meshes {
			if slot.mesh != nil {
				s.MeshesCached++
			}
		}
	}
	return s
}

// Tick runs one streaming pass for the viewer's position on the XZ plane.
func (m *Manager) Tick(viewer math.Vec2) {
	previous := make([]ChunkCoord, 0, len(m.visible))
	for coord := range m.visible {
		previous = append(previous, coord)
	}

	m.viewer = viewer
	m.viewerCoord = m.CoordOf(viewer)
	m.ticked = true

	d := m.visibleDist
	for dy := -d; dy <= d; dy++ {
		for dx := -d; dx <= d; dx++ {
			coord := ChunkCoord{X: m.viewerCoord.X + dx, Y: m.viewerCoord.Y + dy}
			if c, ok := m.chunks[coord]; ok {
				m.updateChunk(c)
			} else {
				m.createChunk(coord)
			}
		}
	}

	// Chunks inside the window already settled their own visibility.
	for _, coord := range previous {
		if !m.inWindow(coord) {
			m.setVisible(m.chunks[coord], false)
		}
	}
}

func (m *Manager) inWindow(coord ChunkCoord) bool {
	if !m.ticked {
		return false
	}
	d := m.visibleDist
	return coord.X >= m.viewerCoord.X-d && coord.X <= m.viewerCoord.X+d &&
		coord.Y >= m.viewerCoord.Y-d && coord.Y <= m.viewerCoord.Y+d
}

func (m *Manager) createChunk(coord ChunkCoord) {
	c := newChunk(coord, m.chunkSize, len(m.lods))
	m.chunks[coord] = c
	m.log.Debug("chunk created", zap.Stringer("coord", coord))

	// Flag first so a generator that completes synchronously sees it.
	c.heightmapRequested = true
	m.stats.HeightmapRequests++
	m.gen.RequestHeightmap(c.center, func(hm *terrain.Heightmap) {
		m.onHeightmap(c, hm)
	})
}

func (m *Manager) onHeightmap(c *Chunk, hm *terrain.Heightmap) {
	c.heightmap = hm
	m.renderer.TextureReady(c.coord, hm)
	if m.inWindow(c.coord) {
		m.updateChunk(c)
	}
}

func (m *Manager) onMesh(c *Chunk, lod int, mesh *terrain.MeshData) {
	c.slot(lod).mesh = mesh
	m.renderer.MeshReady(c.coord, lod, mesh)
	if m.inWindow(c.coord) {
		m.updateChunk(c)
	}
}

// updateChunk settles visibility and level of detail for one chunk.
func (m *Manager) updateChunk(c *Chunk) {
	if c.heightmap == nil {
		return
	}

	dist := c.bounds.Distance(m.viewer)
	visible := dist <= m.maxViewDst

	if visible {
		lod := lodIndex(m.lods, dist)
		c.target = lod
		if lod != c.displayed {
			slot := c.slot(lod)
			switch {
			case slot.mesh != nil:
				m.log.Debug("lod switch",
					zap.Stringer("coord", c.coord),
					zap.Int("from", c.displayed),
					zap.Int("to", lod))
				c.displayed = lod
				m.stats.LODSwitches++
				m.renderer.ShowMesh(c.coord, lod)
			case !slot.requested:
				m.requestMesh(c, lod)
			}
		}
	}

	m.setVisible(c, visible)
}

func (m *Manager) requestMesh(c *Chunk, lod int) {
	c.slot(lod).requested = true
	m.stats.MeshRequests++
	m.gen.RequestMesh(c.heightmap, m.lods[lod].Level, func(mesh *terrain.MeshData) {
		m.onMesh(c, lod, mesh)
	})
}

func (m *Manager) setVisible(c *Chunk, visible bool) {
	if c.visible == visible {
		return
	}
	c.visible = visible
	if visible {
		m.visible[c.coord] = struct{}{}
	} else {
		delete(m.visible, c.coord)
	}
	m.renderer.SetVisible(c.coord, visible)
}

func sortedCoords[V any](set map[ChunkCoord]V) []ChunkCoord {
	coords := make([]ChunkCoord, 0, len(set))
	for coord := range set {
		coords = append(coords, coord)
	}
	slices.SortFunc(coords, func(a, b ChunkCoord) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	return coords
}
