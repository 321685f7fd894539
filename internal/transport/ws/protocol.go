// Package ws streams chunk events to remote viewers over websockets and
// accepts viewer positions back.
package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"

	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/internal/engine/texture"
	"github.com/Faultbox/endless-terrain/internal/game/world"
)

// ProtocolVersion is sent in the hello frame.
const ProtocolVersion = 1

// Message types.
const (
	TypeHello   = "hello"
	TypeTexture = "texture"
	TypeMesh    = "mesh"
	TypeShow    = "show"
	TypeVisible = "visible"
	TypeViewer  = "viewer"
)

// Compression names.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// Envelope is decoded first to route a frame by type.
type Envelope struct {
	Type string `json:"type"`
}

// HelloMsg is the first frame a client receives.
type HelloMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion int     `json:"protocol_version"`
	Compression     string  `json:"compression"`
	ChunkSize       float32 `json:"chunk_size"`
	ViewDistance    float32 `json:"view_distance"`
}

// TextureMsg carries a chunk's RGBA color map without the border ring.
type TextureMsg struct {
	Type   string     `json:"type"`
	Coord  [2]int     `json:"coord"`
	Center [2]float32 `json:"center"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Pixels []byte     `json:"pixels"`
}

// MeshMsg carries one LOD of a chunk as interleaved position, normal and UV
// floats (terrain.VertexStride per vertex).
type MeshMsg struct {
	Type      string    `json:"type"`
	Coord     [2]int    `json:"coord"`
	LOD       int       `json:"lod"`
	Level     int       `json:"level"`
	Vertices  []float32 `json:"vertices"`
	Triangles []uint32  `json:"triangles"`
}

// ShowMsg selects which cached LOD a chunk displays.
type ShowMsg struct {
	Type  string `json:"type"`
	Coord [2]int `json:"coord"`
	LOD   int    `json:"lod"`
}

// VisibleMsg toggles drawing for a chunk.
type VisibleMsg struct {
	Type    string `json:"type"`
	Coord   [2]int `json:"coord"`
	Visible bool   `json:"visible"`
}

// ViewerMsg is sent by clients to move the viewer on the world's XZ plane.
type ViewerMsg struct {
	Type string  `json:"type"`
	X    float32 `json:"x"`
	Z    float32 `json:"z"`
}

func coordOf(c world.ChunkCoord) [2]int { return [2]int{c.X, c.Y} }

func newTextureMsg(coord world.ChunkCoord, hm *terrain.Heightmap) TextureMsg {
	img := texture.FromHeightmap(hm)
	return TextureMsg{
		Type:   TypeTexture,
		Coord:  coordOf(coord),
		Center: [2]float32{hm.Center.X, hm.Center.Y},
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Pixels: img.Pix,
	}
}

func newMeshMsg(coord world.ChunkCoord, lod int, mesh *terrain.MeshData) MeshMsg {
	return MeshMsg{
		Type:      TypeMesh,
		Coord:     coordOf(coord),
		LOD:       lod,
		Level:     mesh.LOD,
		Vertices:  mesh.Interleave(),
		Triangles: mesh.Triangles,
	}
}

// ErrCodecClosed is returned by a codec after Close.
var ErrCodecClosed = errors.New("codec closed")

// Codec turns messages into websocket frames. Compressed frames are binary
// zstd payloads wrapping the same JSON a plain text frame would carry.
// A Codec is safe for concurrent use.
type Codec struct {
	compression string
	maxDecoded  uint64

	mu     sync.RWMutex
	closed bool
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithMaxDecodedSize bounds the size of a decompressed frame. Larger frames
// fail to decode instead of being inflated.
func WithMaxDecodedSize(n uint64) CodecOption {
	return func(c *Codec) { c.maxDecoded = n }
}

// NewCodec returns a codec for the named compression.
func NewCodec(compression string, opts ...CodecOption) (*Codec, error) {
	c := &Codec{compression: compression}
	for _, opt := range opts {
		opt(c)
	}
	switch compression {
	case CompressionNone, "":
		c.compression = CompressionNone
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		decOpts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if c.maxDecoded > 0 {
			decOpts = append(decOpts, zstd.WithDecoderMaxMemory(c.maxDecoded))
		}
		dec, err := zstd.NewReader(nil, decOpts...)
		if err != nil {
			enc.Close()
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		c.enc, c.dec = enc, dec
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
	return c, nil
}

// Compression returns the codec's compression name.
func (c *Codec) Compression() string { return c.compression }

// Encode marshals v and returns the frame payload and websocket message type.
func (c *Codec) Encode(v any) ([]byte, int, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, 0, ErrCodecClosed
	}
	if c.enc == nil {
		return b, websocket.TextMessage, nil
	}
	return c.enc.EncodeAll(b, make([]byte, 0, len(b)/2)), websocket.BinaryMessage, nil
}

// Decode returns the JSON body of a frame. Text frames pass through; binary
// frames are zstd-decompressed.
func (c *Codec) Decode(messageType int, frame []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrCodecClosed
	}
	if messageType == websocket.TextMessage {
		if c.maxDecoded > 0 && uint64(len(frame)) > c.maxDecoded {
			return nil, fmt.Errorf("frame of %d bytes exceeds %d", len(frame), c.maxDecoded)
		}
		return frame, nil
	}
	if c.dec == nil {
		return nil, fmt.Errorf("binary frame on uncompressed stream")
	}
	return c.dec.DecodeAll(frame, nil)
}

// Close releases the zstd state. It is safe to call more than once.
func (c *Codec) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.enc != nil {
		c.enc.Close()
	}
	if c.dec != nil {
		c.dec.Close()
	}
}
