package world

import "github.com/Faultbox/endless-terrain/internal/engine/terrain"

// Renderer receives the manager's decisions. All methods are invoked on the
// goroutine that calls Manager.Tick and drains completions.
//
// lod arguments are indices into the manager's LOD table.
type Renderer interface {
	// TextureReady is called once per chunk when its heightmap arrives.
	TextureReady(coord ChunkCoord, hm *terrain.Heightmap)

	// MeshReady is called once per chunk and LOD when a mesh arrives.
	MeshReady(coord ChunkCoord, lod int, mesh *terrain.MeshData)

	// ShowMesh switches the chunk to a mesh previously passed to MeshReady.
	ShowMesh(coord ChunkCoord, lod int)

	// SetVisible is called only when a chunk's visibility changes.
	SetVisible(coord ChunkCoord, visible bool)
}

// NopRenderer discards every call.
type NopRenderer struct{}

func (NopRenderer) TextureReady(ChunkCoord, *terrain.Heightmap)  {}
func (NopRenderer) MeshReady(ChunkCoord, int, *terrain.MeshData) {}
func (NopRenderer) ShowMesh(ChunkCoord, int)                     {}
func (NopRenderer) SetVisible(ChunkCoord, bool)                  {}

// Renderers fans every call out to each renderer in order.
type Renderers []Renderer

func (rs Renderers) TextureReady(coord ChunkCoord, hm *terrain.Heightmap) {
	for _, r := range rs {
		r.TextureReady(coord, hm)
	}
}

func (rs Renderers) MeshReady(coord ChunkCoord, lod int, mesh *terrain.MeshData) {
	for _, r := range rs {
		r.MeshReady(coord, lod, mesh)
	}
}

func (rs Renderers) ShowMesh(coord ChunkCoord, lod int) {
	for _, r := range rs {
		r.ShowMesh(coord, lod)
	}
}

func (rs Renderers) SetVisible(coord ChunkCoord, visible bool) {
	for _, r := range rs {
		r.SetVisible(coord, visible)
	}
}
