package world

import (
	"fmt"

	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

// ChunkCoord addresses a chunk on the integer grid. Y follows world Z.
type ChunkCoord struct {
	X, Y int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// ChunkState is the lifecycle stage of a chunk.
type ChunkState int

const (
	Unrequested ChunkState = iota
	HeightmapPending
	HeightmapReady
	MeshPending
	MeshReady
)

func (s ChunkState) String() string {
	switch s {
	case Unrequested:
		return "unrequested"
	case HeightmapPending:
		return "heightmap-pending"
	case HeightmapReady:
		return "heightmap-ready"
	case MeshPending:
		return "mesh-pending"
	case MeshReady:
		return "mesh-ready"
	default:
		return fmt.Sprintf("ChunkState(%d)", int(s))
	}
}

type lodMesh struct {
	mesh      *terrain.MeshData
	requested bool
}

// Chunk is one streamed tile of terrain. Chunks are owned by the Manager and
// must only be read from the controlling goroutine.
type Chunk struct {
	coord  ChunkCoord
	center math.Vec2
	bounds math.Rect

	heightmap          *terrain.Heightmap
	heightmapRequested bool

	meshes    []lodMesh
	displayed int // LOD index on screen, -1 for none
	target    int // LOD index last chosen, -1 before the first update
	visible   bool
}

func newChunk(coord ChunkCoord, size float32, lodCount int) *Chunk {
	center := math.Vec2{X: float32(coord.X) * size, Y: float32(coord.Y) * size}
	return &Chunk{
		coord:     coord,
		center:    center,
		bounds:    math.RectFromCenter(center, size),
		meshes:    make([]lodMesh, lodCount),
		displayed: -1,
		target:    -1,
	}
}

// slot returns the mesh cache entry for a LOD index.
func (c *Chunk) slot(lod int) *lodMesh {
	if lod < 0 || lod >= len(c.meshes) {
		panic(fmt.Sprintf("world: lod index %d outside table of %d", lod, len(c.meshes)))
	}
	return &c.meshes[lod]
}

// Coord returns the chunk's grid coordinate.
func (c *Chunk) Coord() ChunkCoord { return c.coord }

// Center returns the world-space center on the XZ plane.
func (c *Chunk) Center() math.Vec2 { return c.center }

// Bounds returns the world-space footprint.
func (c *Chunk) Bounds() math.Rect { return c.bounds }

// Heightmap returns the chunk's heightmap, or nil while it is pending.
func (c *Chunk) Heightmap() *terrain.Heightmap { return c.heightmap }

// Visible reports whether the chunk is currently shown.
func (c *Chunk) Visible() bool { return c.visible }

// DisplayedLOD returns the LOD index on screen, or -1.
func (c *Chunk) DisplayedLOD() int { return c.displayed }

// Mesh returns the cached mesh for a LOD index, or nil.
func (c *Chunk) Mesh(lod int) *terrain.MeshData { return c.slot(lod).mesh }

// MeshRequested reports whether a mesh for the LOD index was ever requested.
func (c *Chunk) MeshRequested(lod int) bool { return c.slot(lod).requested }

// State derives the lifecycle stage from what has been requested and cached.
func (c *Chunk) State() ChunkState {
	if c.heightmap == nil {
		if c.heightmapRequested {
			return HeightmapPending
		}
		return Unrequested
	}
	if c.target >= 0 {
		if s := c.meshes[c.target]; s.requested && s.mesh == nil {
			return MeshPending
		}
	}
	if c.displayed >= 0 {
		return MeshReady
	}
	return HeightmapReady
}
