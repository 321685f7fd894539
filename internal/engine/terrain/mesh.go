package terrain

import (
	"fmt"

	"github.com/Faultbox/endless-terrain/pkg/math"
)

// SimplificationIncrement returns the sample stride for a level of detail.
// LOD 0 keeps every sample; LOD n keeps every 2n-th.
func SimplificationIncrement(lod int) int {
	if lod == 0 {
		return 1
	}
	return lod * 2
}

// BuildMesh turns a bordered heightmap into a chunk mesh at the given LOD.
//
// The outer ring of the heightmap becomes border vertices. Triangles touching
// them feed the normal pass but are kept out of the renderable index buffer,
// so a chunk edge is shaded exactly as its neighbour shades the same edge.
func BuildMesh(hm *Heightmap, curve Curve, heightMultiplier float32, lod int) *MeshData {
	if lod < 0 {
		panic(fmt.Sprintf("terrain: negative level of detail %d", lod))
	}

	inc := SimplificationIncrement(lod)
	cols := sampleLine(hm.Width, inc)
	rows := sampleLine(hm.Height, inc)

	interiorW, interiorH := hm.InteriorSize()
	topLeftX := float32(interiorW-1) / -2
	topLeftZ := float32(interiorH-1) / 2

	// Index map keyed by raw grid position; only sampled cells are written.
	indexMap := make([]int32, hm.Width*hm.Height)
	var interiorCount, borderCount int32
	for _, gy := range rows {
		for _, gx := range cols {
			if isBorder(hm, gx, gy) {
				borderCount++
				indexMap[gy*hm.Width+gx] = -borderCount
			} else {
				indexMap[gy*hm.Width+gx] = interiorCount
				interiorCount++
			}
		}
	}

	quads := (len(cols) - 1) * (len(rows) - 1)
	md := &MeshData{
		LOD:            lod,
		Vertices:       make([]math.Vec3, interiorCount),
		UVs:            make([]math.Vec2, interiorCount),
		Normals:        make([]math.Vec3, interiorCount),
		Triangles:      make([]uint32, 0, quads*6),
		BorderVertices: make([]math.Vec3, borderCount),
		BorderNormals:  make([]math.Vec3, borderCount),
	}

	uDen := float32(max(interiorW-1, 1))
	vDen := float32(max(interiorH-1, 1))

	for j, gy := range rows {
		for i, gx := range cols {
			index := indexMap[gy*hm.Width+gx]
			position := math.Vec3{
				X: topLeftX + float32(gx-BorderSize),
				Y: curve.Evaluate(hm.At(gx, gy)) * heightMultiplier,
				Z: topLeftZ - float32(gy-BorderSize),
			}

			if index < 0 {
				md.BorderVertices[-index-1] = position
			} else {
				md.Vertices[index] = position
				md.UVs[index] = math.Vec2{
					X: float32(gx-BorderSize) / uDen,
					Y: float32(gy-BorderSize) / vDen,
				}
			}

			if i < len(cols)-1 && j < len(rows)-1 {
				a := index
				b := indexMap[gy*hm.Width+cols[i+1]]
				c := indexMap[rows[j+1]*hm.Width+gx]
				d := indexMap[rows[j+1]*hm.Width+cols[i+1]]
				md.addTriangle(a, d, c)
				md.addTriangle(d, a, b)
			}
		}
	}

	md.calculateNormals()
	return md
}

// sampleLine lists the grid positions sampled along one axis: every border
// cell, then the interior at the given stride, always ending on the far
// interior edge so the renderable extent never shrinks with LOD.
func sampleLine(size, inc int) []int {
	last := size - 1 - BorderSize
	line := make([]int, 0, (size-2*BorderSize)/inc+2*BorderSize+1)
	for p := 0; p < BorderSize; p++ {
		line = append(line, p)
	}
	for p := BorderSize; p <= last; p += inc {
		line = append(line, p)
	}
	if line[len(line)-1] != last {
		line = append(line, last)
	}
	for p := last + 1; p < size; p++ {
		line = append(line, p)
	}
	return line
}

func isBorder(hm *Heightmap, x, y int) bool {
	return x < BorderSize || y < BorderSize ||
		x >= hm.Width-BorderSize || y >= hm.Height-BorderSize
}

func (md *MeshData) addTriangle(a, b, c int32) {
	if a < 0 || b < 0 || c < 0 {
		md.BorderTriangles = append(md.BorderTriangles, a, b, c)
		return
	}
	md.Triangles = append(md.Triangles, uint32(a), uint32(b), uint32(c))
}

func (md *MeshData) position(index int32) math.Vec3 {
	if index < 0 {
		return md.BorderVertices[-index-1]
	}
	return md.Vertices[index]
}

func (md *MeshData) accumulateNormal(index int32, n math.Vec3) {
	if index < 0 {
		md.BorderNormals[-index-1] = md.BorderNormals[-index-1].Add(n)
		return
	}
	md.Normals[index] = md.Normals[index].Add(n)
}

func (md *MeshData) faceNormal(a, b, c int32) math.Vec3 {
	pa := md.position(a)
	ab := md.position(b).Sub(pa)
	ac := md.position(c).Sub(pa)
	return ab.Cross(ac).Normalize()
}

// calculateNormals averages face normals into every referenced vertex.
func (md *MeshData) calculateNormals() {
	for t := 0; t+2 < len(md.Triangles); t += 3 {
		a, b, c := int32(md.Triangles[t]), int32(md.Triangles[t+1]), int32(md.Triangles[t+2])
		n := md.faceNormal(a, b, c)
		md.accumulateNormal(a, n)
		md.accumulateNormal(b, n)
		md.accumulateNormal(c, n)
	}
	for t := 0; t+2 < len(md.BorderTriangles); t += 3 {
		a, b, c := md.BorderTriangles[t], md.BorderTriangles[t+1], md.BorderTriangles[t+2]
		n := md.faceNormal(a, b, c)
		md.accumulateNormal(a, n)
		md.accumulateNormal(b, n)
		md.accumulateNormal(c, n)
	}

	for i := range md.Normals {
		md.Normals[i] = md.Normals[i].NormalizeOrUp()
	}
	for i := range md.BorderNormals {
		md.BorderNormals[i] = md.BorderNormals[i].NormalizeOrUp()
	}
}
