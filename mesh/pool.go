package mesh

import (
	"log/slog"
	"sync"
	"time"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/lod"
	"github.com/finevox/voxelcore/queue"
)

// RebuildRequest is one pending mesh-rebuild ask, keyed by ChunkPos in
// the pool's MeshRebuildQueue. Coalescing two requests for the same
// chunk keeps the higher priority, the most detailed (lowest) LOD
// level asked for, and the latest versions — any of which can only grow
// more demanding as requests pile up.
type RebuildRequest struct {
	Priority   int
	LODRequest uint8
	Version    VersionPair
}

func mergeRebuildRequests(existing, incoming RebuildRequest) RebuildRequest {
	out := existing
	if incoming.Priority > out.Priority {
		out.Priority = incoming.Priority
	}
	if incoming.LODRequest < out.LODRequest {
		out.LODRequest = incoming.LODRequest
	}
	if incoming.Version.Block > out.Version.Block {
		out.Version.Block = incoming.Version.Block
	}
	if incoming.Version.Light > out.Version.Light {
		out.Version.Light = incoming.Version.Light
	}
	return out
}

// VersionSource resolves the live block/light version pair for a
// subchunk, for staleness comparisons and to stamp rebuild requests and
// freshly built cache entries.
type VersionSource func(pos cube.ChunkPos) (VersionPair, bool)

// BuildInputSource resolves the BuildInput needed to mesh a subchunk.
// Returns ok=false if the subchunk is no longer loaded, e.g. it was
// unloaded between the request being queued and the worker picking it
// up; the worker then drops the request instead of building a mesh for
// data that no longer exists.
type BuildInputSource func(pos cube.ChunkPos) (BuildInput, bool)

// LODModeFor maps a requested LOD level to the vertical merge mode
// BuildLOD should use at that level. A nil LODModeFor defaults every
// level to lod.FullHeight.
type LODModeFor func(level uint8) lod.MergeMode

// Pool is the mesh worker pool spec.md §4.8 describes: N worker
// goroutines pulling from a single keyed-coalescing rebuild queue,
// falling back to a staleness scan over tracked chunks when the queue
// is empty, writing results into a shared Cache.
type Pool struct {
	cache   *Cache
	tracker *chunkTracker
	queue   *queue.KeyedQueue[cube.ChunkPos, RebuildRequest]

	versions   VersionSource
	buildInput BuildInputSource
	lodMode    LODModeFor
	log        *slog.Logger

	wg      sync.WaitGroup
	workers int
	started bool
}

// NewPool returns a Pool with workers worker goroutines, sharing cache
// and reading live subchunk state through versions/buildInput.
func NewPool(workers int, cache *Cache, versions VersionSource, buildInput BuildInputSource, lodMode LODModeFor, log *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		cache:      cache,
		tracker:    newChunkTracker(),
		queue:      queue.NewKeyedWithMerge[cube.ChunkPos, RebuildRequest](mergeRebuildRequests),
		versions:   versions,
		buildInput: buildInput,
		lodMode:    lodMode,
		log:        log,
		workers:    workers,
	}
}

// Track adds pos to the pool's staleness-scan rotation. Called when a
// subchunk becomes eligible for mesh generation (loaded and in render
// range).
func (p *Pool) Track(pos cube.ChunkPos) { p.tracker.track(pos) }

// Untrack removes pos from the staleness-scan rotation and drops its
// cache entry, for subchunk unload.
func (p *Pool) Untrack(pos cube.ChunkPos) {
	p.tracker.untrack(pos)
	p.cache.Remove(pos)
}

// GetMesh is the graphics thread's non-blocking read path (spec.md
// §4.8): it returns whatever cache entry exists for pos, possibly
// stale, and reports whether it enqueued a rebuild. The caller should
// keep drawing the returned entry's mesh (if any) while a triggered
// rebuild runs in the background.
func (p *Pool) GetMesh(pos cube.ChunkPos, requestedLOD uint8) (entry *MeshCacheEntry, rebuildTriggered bool) {
	entry, existed := p.cache.Peek(pos)
	live, ok := p.versions(pos)
	if !ok {
		return entry, false
	}
	if !existed || entry.isStale(live.Block, live.Light, requestedLOD) {
		p.enqueue(pos, RebuildRequest{Priority: 0, LODRequest: requestedLOD, Version: live})
		return p.cache.entry(pos), true
	}
	return entry, false
}

// MarkUploaded promotes pos's pending mesh to uploaded, per spec.md
// §4.8's graphics-thread-driven upload handshake.
func (p *Pool) MarkUploaded(pos cube.ChunkPos) { p.cache.MarkUploaded(pos) }

// Invalidate requests an immediate, full-detail rebuild of pos, for a
// caller that knows authoritatively the subchunk changed (the game
// thread right after a mutation, the light worker once propagation
// settles) rather than one merely suspecting staleness on a read. Queued
// requests are served before the background staleness scan runs. Its
// Priority 1 survives a merge with a GetMesh request (Priority 0) for the
// same chunk, but the queue pops in first-push order, so priority does
// not move it ahead of other chunks' queued requests.
func (p *Pool) Invalidate(pos cube.ChunkPos) {
	live, ok := p.versions(pos)
	if !ok {
		return
	}
	p.enqueue(pos, RebuildRequest{Priority: 1, LODRequest: 0, Version: live})
}

func (p *Pool) enqueue(pos cube.ChunkPos, req RebuildRequest) {
	p.queue.Push(pos, req)
}

// SetAlarm requests the pool wake at or before t even with no new
// explicit work, for background staleness scans (spec.md §4.8: "the
// graphics thread can request the pool to wake at a near-future time").
func (p *Pool) SetAlarm(t time.Time) { p.queue.SetAlarm(t) }

// PendingRebuilds returns the number of distinct chunks with a queued
// rebuild request.
func (p *Pool) PendingRebuilds() int { return p.queue.Len() }

// Start launches the pool's worker goroutines. Calling it twice panics.
func (p *Pool) Start() {
	if p.started {
		panic("mesh: Pool.Start called twice")
	}
	p.started = true
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.workerLoop()
	}
}

// Stop shuts the rebuild queue down and waits for every worker to exit.
func (p *Pool) Stop() {
	p.queue.Shutdown()
	p.wg.Wait()
}

func (p *Pool) workerLoop() {
	defer p.wg.Done()
	for p.queue.WaitForWork() {
		pos, req, ok := p.queue.TryPop()
		if !ok {
			pos, ok = p.findStaleChunk()
			if !ok {
				continue
			}
			live, lok := p.versions(pos)
			if !lok {
				continue
			}
			req = RebuildRequest{Priority: 0, LODRequest: 0, Version: live}
		}
		p.rebuild(pos, req)
	}
}

// findStaleChunk scans the tracked-chunks ring for the first entry
// whose live version differs from what the cache has uploaded,
// moving it to the back of the rotation regardless of outcome so
// repeated scans rotate through every tracked chunk in turn.
func (p *Pool) findStaleChunk() (cube.ChunkPos, bool) {
	for _, pos := range p.tracker.snapshot() {
		p.tracker.touch(pos)
		live, ok := p.versions(pos)
		if !ok {
			continue
		}
		entry, existed := p.cache.Peek(pos)
		if !existed || entry.versionStale(live.Block, live.Light) {
			return pos, true
		}
	}
	return cube.ChunkPos{}, false
}

func (p *Pool) rebuild(pos cube.ChunkPos, req RebuildRequest) {
	in, ok := p.buildInput(pos)
	if !ok {
		return
	}
	mode := lod.FullHeight
	if p.lodMode != nil {
		mode = p.lodMode(req.LODRequest)
	}
	built := BuildLOD(in, req.LODRequest, mode)
	p.cache.entry(pos).setPending(&built, req.Version, req.LODRequest)
}
