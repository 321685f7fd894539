package world

import (
	"runtime"
	"sync"

	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

// Generator produces chunk data asynchronously. done callbacks must run on
// the goroutine that owns the Manager.
type Generator interface {
	RequestHeightmap(center math.Vec2, done func(*terrain.Heightmap))
	RequestMesh(hm *terrain.Heightmap, lod int, done func(*terrain.MeshData))
}

// Source does the actual terrain work. Implementations must be safe for
// concurrent use.
type Source interface {
	Heightmap(center math.Vec2) *terrain.Heightmap
	Mesh(hm *terrain.Heightmap, lod int) *terrain.MeshData
}

// TerrainSource builds chunk data from an assembler and a height curve.
type TerrainSource struct {
	Assembler        *terrain.Assembler
	Curve            terrain.Curve
	HeightMultiplier float32
}

func (s *TerrainSource) Heightmap(center math.Vec2) *terrain.Heightmap {
	return s.Assembler.Generate(center)
}

func (s *TerrainSource) Mesh(hm *terrain.Heightmap, lod int) *terrain.MeshData {
	return terrain.BuildMesh(hm, s.Curve, s.HeightMultiplier, lod)
}

// Inline runs every request immediately on the caller's goroutine.
type Inline struct {
	Source Source
}

func (g Inline) RequestHeightmap(center math.Vec2, done func(*terrain.Heightmap)) {
	done(g.Source.Heightmap(center))
}

func (g Inline) RequestMesh(hm *terrain.Heightmap, lod int, done func(*terrain.MeshData)) {
	done(g.Source.Mesh(hm, lod))
}

// Pool runs requests on background workers and queues their completions
// until the owner calls Drain. Requests never block the caller: the job
// queue grows as needed, so a Tick that opens many chunks at once returns
// immediately.
type Pool struct {
	source Source
	wg     sync.WaitGroup

	mu      sync.Mutex
	ready   *sync.Cond
	jobs    []func()
	closed  bool
	pending int

	resultsMu sync.Mutex
	results   []func()
}

// NewPool starts workers goroutines; zero or less means one per CPU.
func NewPool(source Source, workers int) *Pool {
	if workers <= 0 {
		workers = max(runtime.NumCPU(), 1)
	}
	p := &Pool{source: source}
	p.ready = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// worker runs jobs until the pool is closed and the queue is empty.
func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.jobs) == 0 && !p.closed {
			p.ready.Wait()
		}
		if len(p.jobs) == 0 {
			p.mu.Unlock()
			return
		}
		job := p.jobs[0]
		p.jobs[0] = nil
		p.jobs = p.jobs[1:]
		p.mu.Unlock()

		job()
	}
}

// complete queues a finished callback. Workers never block here.
func (p *Pool) complete(fn func()) {
	p.resultsMu.Lock()
	p.results = append(p.results, fn)
	p.resultsMu.Unlock()
}

func (p *Pool) submit(job func()) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.pending++
	p.jobs = append(p.jobs, job)
	p.mu.Unlock()

	p.ready.Signal()
	return true
}

func (p *Pool) RequestHeightmap(center math.Vec2, done func(*terrain.Heightmap)) {
	p.submit(func() {
		hm := p.source.Heightmap(center)
		p.complete(func() { done(hm) })
	})
}

func (p *Pool) RequestMesh(hm *terrain.Heightmap, lod int, done func(*terrain.MeshData)) {
	p.submit(func() {
		md := p.source.Mesh(hm, lod)
		p.complete(func() { done(md) })
	})
}

// Drain runs every queued completion on the calling goroutine and returns
// how many ran. Completions queued by those callbacks wait for the next call.
func (p *Pool) Drain() int {
	p.resultsMu.Lock()
	batch := p.results
	p.results = nil
	p.resultsMu.Unlock()

	for _, fn := range batch {
		fn()
	}

	p.mu.Lock()
	p.pending -= len(batch)
	p.mu.Unlock()
	return len(batch)
}

// Pending returns the number of requests not yet drained.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Close stops accepting requests and waits for the workers to finish the
// queued jobs. Completions still queued are dropped unless Drain is called
// afterwards.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.ready.Broadcast()
	p.wg.Wait()
}
