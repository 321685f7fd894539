// Package terrain assembles heightmaps from noise and turns them into
// LOD-simplified, seam-free chunk meshes.
package terrain

import (
	"image/color"

	"github.com/Faultbox/endless-terrain/pkg/math"
)

// BorderSize is the margin, in cells, sampled around every chunk so edge
// normals can see the neighbouring terrain.
const BorderSize = 1

// Heightmap is an immutable bordered height grid for one chunk.
type Heightmap struct {
	Width  int         // columns, border included
	Height int         // rows, border included
	Values []float32   // row-major heights
	Colors []color.RGBA // optional classification colors, parallel to Values
	Center math.Vec2   // world-space center the map was generated for
}

// At returns the height at column x, row y.
func (h *Heightmap) At(x, y int) float32 {
	return h.Values[y*h.Width+x]
}

// ColorAt returns the classification color at column x, row y.
func (h *Heightmap) ColorAt(x, y int) color.RGBA {
	return h.Colors[y*h.Width+x]
}

// InteriorSize returns the renderable vertex count per edge.
func (h *Heightmap) InteriorSize() (int, int) {
	return h.Width - 2*BorderSize, h.Height - 2*BorderSize
}

// MeshData holds a chunk mesh ready for upload.
//
// Border vertices exist only so edge normals match the neighbouring chunk.
// They are addressed by negative sentinels (-1 is slot 0) in BorderTriangles
// and never appear in Triangles.
type MeshData struct {
	LOD       int
	Vertices  []math.Vec3
	UVs       []math.Vec2
	Normals   []math.Vec3
	Triangles []uint32

	BorderVertices  []math.Vec3
	BorderNormals   []math.Vec3
	BorderTriangles []int32
}

// TriangleCount returns the number of renderable triangles.
func (m *MeshData) TriangleCount() int {
	return len(m.Triangles) / 3
}

// Region classifies heights into colors, lowest first.
type Region struct {
	Name   string
	Height float32 // upper bound of the band
	Color  color.RGBA
}

// DefaultRegions returns a water-to-snow palette.
func DefaultRegions() []Region {
	return []Region{
		{Name: "deep water", Height: 0.3, Color: color.RGBA{R: 0x32, G: 0x5c, B: 0xc4, A: 0xff}},
		{Name: "water", Height: 0.4, Color: color.RGBA{R: 0x36, G: 0x67, B: 0xc9, A: 0xff}},
		{Name: "sand", Height: 0.45, Color: color.RGBA{R: 0xd2, G: 0xd0, B: 0x7d, A: 0xff}},
		{Name: "grass", Height: 0.55, Color: color.RGBA{R: 0x56, G: 0x98, B: 0x14, A: 0xff}},
		{Name: "forest", Height: 0.6, Color: color.RGBA{R: 0x3e, G: 0x6b, B: 0x12, A: 0xff}},
		{Name: "rock", Height: 0.7, Color: color.RGBA{R: 0x5a, G: 0x45, B: 0x3c, A: 0xff}},
		{Name: "high rock", Height: 0.9, Color: color.RGBA{R: 0x4b, G: 0x3c, B: 0x35, A: 0xff}},
		{Name: "snow", Height: 1, Color: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
	}
}

// VertexStride is the number of floats per interleaved vertex.
const VertexStride = 8

// Interleave packs position, normal and UV per vertex for GPU upload.
func (m *MeshData) Interleave() []float32 {
	out := make([]float32, 0, len(m.Vertices)*VertexStride)
	for i, v := range m.Vertices {
		n, uv := m.Normals[i], m.UVs[i]
		out = append(out, v.X, v.Y, v.Z, n.X, n.Y, n.Z, uv.X, uv.Y)
	}
	return out
}
