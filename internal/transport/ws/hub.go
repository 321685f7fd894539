package ws

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/internal/game/world"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

const (
	writeTimeout = 5 * time.Second

	// maxClientMessage bounds inbound frames, compressed or not. Viewer
	// messages are a few dozen bytes.
	maxClientMessage = 4 << 10
)

// Options configures a Hub.
type Options struct {
	Compression  string
	ChunkSize    float32
	ViewDistance float32
	Logger       *zap.Logger

	// CheckOrigin vets the Origin header of upgrade requests. Nil keeps
	// gorilla's same-host check, which admits clients that send no Origin.
	CheckOrigin func(r *http.Request) bool
}

type frame struct {
	kind int
	data []byte
}

type meshKey struct {
	coord world.ChunkCoord
	lod   int
}

// Hub is a world.Renderer that mirrors chunk events to every connected
// websocket client. It keeps the encoded textures and meshes it has seen so
// a client joining late receives the current scene before live events.
type Hub struct {
	codec    *Codec
	hello    HelloMsg
	log      *zap.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu       sync.Mutex
	clients  map[*client]struct{}
	textures map[world.ChunkCoord]frame
	meshes   map[meshKey]frame
	shown    map[world.ChunkCoord]int
	visible  map[world.ChunkCoord]bool
	closed   bool

	viewer    math.Vec2
	hasViewer bool
}

var _ world.Renderer = (*Hub)(nil)

// NewHub creates a hub. It does not listen; mount Handler on a server.
func NewHub(opts Options) (*Hub, error) {
	codec, err := NewCodec(opts.Compression, WithMaxDecodedSize(maxClientMessage))
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		codec: codec,
		hello: HelloMsg{
			Type:            TypeHello,
			ProtocolVersion: ProtocolVersion,
			Compression:     codec.Compression(),
			ChunkSize:       opts.ChunkSize,
			ViewDistance:    opts.ViewDistance,
		},
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		clients:  make(map[*client]struct{}),
		textures: make(map[world.ChunkCoord]frame),
		meshes:   make(map[meshKey]frame),
		shown:    make(map[world.ChunkCoord]int),
		visible:  make(map[world.ChunkCoord]bool),
	}, nil
}

// Viewer returns the most recent viewer position sent by any client.
func (h *Hub) Viewer() (math.Vec2, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewer, h.hasViewer
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// TextureReady broadcasts a chunk's color map.
func (h *Hub) TextureReady(coord world.ChunkCoord, hm *terrain.Heightmap) {
	f, ok := h.encode(newTextureMsg(coord, hm))
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.textures[coord] = f
	h.broadcast(f)
}

// MeshReady broadcasts a mesh for one LOD slot.
func (h *Hub) MeshReady(coord world.ChunkCoord, lod int, mesh *terrain.MeshData) {
	f, ok := h.encode(newMeshMsg(coord, lod, mesh))
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.meshes[meshKey{coord, lod}] = f
	h.broadcast(f)
}

// ShowMesh broadcasts the LOD slot a chunk displays.
func (h *Hub) ShowMesh(coord world.ChunkCoord, lod int) {
	f, ok := h.encode(ShowMsg{Type: TypeShow, Coord: coordOf(coord), LOD: lod})
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown[coord] = lod
	h.broadcast(f)
}

// SetVisible broadcasts a visibility change.
func (h *Hub) SetVisible(coord world.ChunkCoord, visible bool) {
	f, ok := h.encode(VisibleMsg{Type: TypeVisible, Coord: coordOf(coord), Visible: visible})
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visible[coord] = visible
	h.broadcast(f)
}

func (h *Hub) encode(v any) (frame, bool) {
	data, kind, err := h.codec.Encode(v)
	if errors.Is(err, ErrCodecClosed) {
		return frame{}, false
	}
	if err != nil {
		h.log.Error("encoding frame", zap.Error(err))
		return frame{}, false
	}
	return frame{kind: kind, data: data}, true
}

// broadcast must be called with h.mu held.
func (h *Hub) broadcast(f frame) {
	for c := range h.clients {
		c.push(f)
	}
}

// snapshot returns the frames that bring a new client up to date. It must
// be called with h.mu held.
func (h *Hub) snapshot() []frame {
	out := make([]frame, 0, 1+len(h.textures)+len(h.meshes)+len(h.shown)+len(h.visible))
	if f, ok := h.encode(h.hello); ok {
		out = append(out, f)
	}

	for _, coord := range sortedCoords(h.textures) {
		out = append(out, h.textures[coord])
	}

	keys := slices.SortedFunc(maps.Keys(h.meshes), func(a, b meshKey) int {
		return cmp.Or(compareCoords(a.coord, b.coord), cmp.Compare(a.lod, b.lod))
	})
	for _, k := range keys {
		out = append(out, h.meshes[k])
	}

	for _, coord := range sortedCoords(h.shown) {
		if f, ok := h.encode(ShowMsg{Type: TypeShow, Coord: coordOf(coord), LOD: h.shown[coord]}); ok {
			out = append(out, f)
		}
	}
	for _, coord := range sortedCoords(h.visible) {
		if f, ok := h.encode(VisibleMsg{Type: TypeVisible, Coord: coordOf(coord), Visible: h.visible[coord]}); ok {
			out = append(out, f)
		}
	}
	return out
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.push(h.snapshot()...)
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) setViewer(pos math.Vec2) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewer = pos
	h.hasViewer = true
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.done)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	h.codec.Close()
}

// Handler upgrades requests to websocket sessions.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxClientMessage)

		c := newClient(fmt.Sprintf("V%d", h.nextID.Add(1)))
		if !h.register(c) {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		defer h.unregister(c)

		log := h.log.With(zap.String("client", c.id), zap.String("remote", r.RemoteAddr))
		log.Info("viewer connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for {
				select {
				case <-ctx.Done():
					return
				case <-c.done:
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
					_ = conn.Close()
					return
				case <-c.wake:
					for _, f := range c.take() {
						_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
						if err := conn.WriteMessage(f.kind, f.data); err != nil {
							log.Debug("write failed", zap.Error(err))
							_ = conn.Close()
							return
						}
					}
				}
			}
		}()

		// Reader loop: viewer position updates.
		for {
			kind, msg, err := conn.ReadMessage()
			if err != nil {
				if errors.Is(err, websocket.ErrReadLimit) {
					log.Warn("dropping viewer: frame over limit")
				}
				break
			}
			body, err := h.codec.Decode(kind, msg)
			if err != nil {
				log.Warn("dropping viewer: undecodable frame", zap.Error(err))
				break
			}
			var env Envelope
			if err := json.Unmarshal(body, &env); err != nil || env.Type != TypeViewer {
				continue
			}
			var vm ViewerMsg
			if err := json.Unmarshal(body, &vm); err != nil {
				continue
			}
			h.setViewer(math.Vec2{X: vm.X, Y: vm.Z})
		}

		cancel()
		<-writerDone
		log.Info("viewer disconnected")
	}
}

type client struct {
	id   string
	wake chan struct{}
	done chan struct{}

	mu    sync.Mutex
	queue []frame
}

func newClient(id string) *client {
	return &client{
		id:   id,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// push queues frames without blocking the caller.
func (c *client) push(frames ...frame) {
	if len(frames) == 0 {
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, frames...)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *client) take() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

func compareCoords(a, b world.ChunkCoord) int {
	return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
}

func sortedCoords[V any](set map[world.ChunkCoord]V) []world.ChunkCoord {
	return slices.SortedFunc(maps.Keys(set), compareCoords)
}
