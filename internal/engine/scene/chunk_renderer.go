// Package scene draws streamed terrain chunks with OpenGL.
package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/endless-terrain/internal/engine/lighting"
	"github.com/Faultbox/endless-terrain/internal/engine/scene/shaders"
	"github.com/Faultbox/endless-terrain/internal/engine/shader"
	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/internal/engine/texture"
	"github.com/Faultbox/endless-terrain/internal/game/world"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

// Lighting holds the shading parameters for a frame.
type Lighting struct {
	LightDir  [3]float32
	Ambient   [3]float32
	FogColor  [3]float32
	FogNear   float32
	FogFar    float32
	CameraPos math.Vec3
}

// DefaultLighting returns a late-afternoon sun with sky-colored fog.
func DefaultLighting(viewDistance float32) Lighting {
	return Lighting{
		LightDir: lighting.SunRays(235, 50),
		Ambient:  [3]float32{0.35, 0.35, 0.4},
		FogColor: [3]float32{0.55, 0.7, 0.85},
		FogNear:  viewDistance * 0.6,
		FogFar:   viewDistance,
	}
}

type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

type gpuChunk struct {
	offset  math.Vec3
	texture uint32
	meshes  map[int]*gpuMesh
	shown   int
	visible bool
}

// FrameStats reports what the last Render call drew.
type FrameStats struct {
	Chunks    int
	Triangles int
}

// ChunkRenderer keeps one texture and a mesh per LOD on the GPU for every
// chunk, and draws the shown mesh of each visible chunk. It implements
// world.Renderer and must be driven from the GL thread.
type ChunkRenderer struct {
	program *shader.Program
	chunks  map[world.ChunkCoord]*gpuChunk
	stats   FrameStats
	log     *zap.Logger
}

var _ world.Renderer = (*ChunkRenderer)(nil)

// NewChunkRenderer compiles the chunk program. A GL context must be current.
func NewChunkRenderer(log *zap.Logger) (*ChunkRenderer, error) {
	program, err := shader.New(shaders.ChunkVertexShader, shaders.ChunkFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("chunk shader: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChunkRenderer{
		program: program,
		chunks:  make(map[world.ChunkCoord]*gpuChunk),
		log:     log,
	}, nil
}

func (r *ChunkRenderer) chunk(coord world.ChunkCoord) *gpuChunk {
	c, ok := r.chunks[coord]
	if !ok {
		c = &gpuChunk{meshes: make(map[int]*gpuMesh), shown: -1}
		r.chunks[coord] = c
	}
	return c
}

// TextureReady uploads the chunk's color map and records its world offset.
func (r *ChunkRenderer) TextureReady(coord world.ChunkCoord, hm *terrain.Heightmap) {
	c := r.chunk(coord)
	c.offset = math.Vec3{X: hm.Center.X, Z: hm.Center.Y}
	c.texture = uploadTexture(texture.FromHeightmap(hm).Pix, hm.Width-2*terrain.BorderSize, hm.Height-2*terrain.BorderSize)
}

// MeshReady uploads a mesh for later display.
func (r *ChunkRenderer) MeshReady(coord world.ChunkCoord, lod int, mesh *terrain.MeshData) {
	if len(mesh.Triangles) == 0 {
		r.log.Warn("empty chunk mesh", zap.Stringer("coord", coord), zap.Int("lod", lod))
		return
	}
	r.chunk(coord).meshes[lod] = uploadMesh(mesh)
}

// ShowMesh selects which uploaded mesh a chunk draws.
func (r *ChunkRenderer) ShowMesh(coord world.ChunkCoord, lod int) {
	r.chunk(coord).shown = lod
}

// SetVisible toggles drawing for a chunk.
func (r *ChunkRenderer) SetVisible(coord world.ChunkCoord, visible bool) {
	r.chunk(coord).visible = visible
}

// Render draws every visible chunk that has a mesh shown.
func (r *ChunkRenderer) Render(viewProj math.Mat4, light Lighting) {
	r.stats = FrameStats{}

	r.program.Use()
	r.program.SetMat4("uViewProj", &viewProj)
	r.program.SetVec3("uLightDir", light.LightDir[0], light.LightDir[1], light.LightDir[2])
	r.program.SetVec3("uAmbient", light.Ambient[0], light.Ambient[1], light.Ambient[2])
	r.program.SetVec3("uFogColor", light.FogColor[0], light.FogColor[1], light.FogColor[2])
	r.program.SetFloat("uFogNear", light.FogNear)
	r.program.SetFloat("uFogFar", light.FogFar)
	r.program.SetVec3("uCameraPos", light.CameraPos.X, light.CameraPos.Y, light.CameraPos.Z)
	r.program.SetInt("uTexture", 0)
	gl.ActiveTexture(gl.TEXTURE0)

	for _, c := range r.chunks {
		if !c.visible || c.shown < 0 {
			continue
		}
		m, ok := c.meshes[c.shown]
		if !ok {
			continue
		}

		r.program.SetVec3("uOffset", c.offset.X, c.offset.Y, c.offset.Z)
		gl.BindTexture(gl.TEXTURE_2D, c.texture)
		gl.BindVertexArray(m.vao)
		gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)

		r.stats.Chunks++
		r.stats.Triangles += int(m.indexCount) / 3
	}
	gl.BindVertexArray(0)
}

// Stats returns what the last Render call drew.
func (r *ChunkRenderer) Stats() FrameStats {
	return r.stats
}

// Destroy releases all GPU resources.
func (r *ChunkRenderer) Destroy() {
	for _, c := range r.chunks {
		for _, m := range c.meshes {
			m.delete()
		}
		if c.texture != 0 {
			gl.DeleteTextures(1, &c.texture)
		}
	}
	r.chunks = make(map[world.ChunkCoord]*gpuChunk)
	r.program.Delete()
}

// uploadTexture creates a point-sampled, edge-clamped texture so region
// bands stay crisp and chunk edges do not bleed.
func uploadTexture(pix []uint8, width, height int) uint32 {
	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(width), int32(height),
		0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pix[0]))

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	return texID
}

func uploadMesh(mesh *terrain.MeshData) *gpuMesh {
	vertices := mesh.Interleave()
	m := &gpuMesh{indexCount: int32(len(mesh.Triangles))}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	// VBO
	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	stride := int32(terrain.VertexStride * 4)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)

	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	// TexCoord (location 2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)

	// EBO
	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Triangles)*4, unsafe.Pointer(&mesh.Triangles[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return m
}

func (m *gpuMesh) delete() {
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
}
