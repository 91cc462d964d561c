package mesh

import (
	"sync"

	"github.com/finevox/voxelcore/cube"
)

// VersionPair bundles the block/light version pair a mesh was built
// from or uploaded at. spec.md §4.8 names both `pending_block_version`/
// `pending_light_version` (the pair written after a build) and the
// cache's `pending_version`/`uploaded_version` fields (the pair read
// back for staleness checks); VersionPair is the single type serving
// both.
type VersionPair struct {
	Block uint64
	Light uint64
}

// MeshCacheEntry holds the most recently built (pending) mesh for a
// subchunk and the versions it reflects, plus whatever was last
// confirmed uploaded to the GPU. A subchunk can have a pending mesh
// newer than what's uploaded while the graphics thread hasn't yet
// called MarkUploaded.
type MeshCacheEntry struct {
	mu sync.RWMutex

	pendingMesh    *MeshData
	pendingVersion VersionPair
	pendingLOD     uint8
	hasPending     bool

	uploadedVersion VersionPair
	uploadedLOD     uint8
	hasUploaded     bool
}

// PendingMesh returns the entry's current pending mesh, if any.
func (e *MeshCacheEntry) PendingMesh() (*MeshData, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pendingMesh, e.hasPending
}

// UploadedVersion returns the version pair the last confirmed upload
// reflects.
func (e *MeshCacheEntry) UploadedVersion() (VersionPair, uint8, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.uploadedVersion, e.uploadedLOD, e.hasUploaded
}

// versionStale reports whether the entry's uploaded version lags the
// given live block/light versions, ignoring LOD. Used for the
// background staleness scan, which isn't driven by any particular
// requested detail level.
func (e *MeshCacheEntry) versionStale(liveBlock, liveLight uint64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.hasUploaded {
		return true
	}
	return e.uploadedVersion.Block != liveBlock || e.uploadedVersion.Light != liveLight
}

// isStale reports whether the entry's uploaded version lags the given
// live block/light versions, or whether requestedLOD needs a finer
// level than whatever is uploaded. A requested LOD is satisfied by an
// uploaded mesh at the same level or finer (lower level number); an
// entry with nothing uploaded yet is always stale.
func (e *MeshCacheEntry) isStale(liveBlock, liveLight uint64, requestedLOD uint8) bool {
	if e.versionStale(liveBlock, liveLight) {
		return true
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.uploadedLOD > requestedLOD
}

func (e *MeshCacheEntry) setPending(mesh *MeshData, version VersionPair, lodLevel uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingMesh = mesh
	e.pendingVersion = version
	e.pendingLOD = lodLevel
	e.hasPending = true
}

// markUploaded promotes the entry's pending mesh/version/LOD into the
// uploaded fields and clears pending, per spec.md §4.8: "After GPU
// upload the graphics thread calls mark_uploaded(pos) which promotes
// pending_* into uploaded_* and clears pending."
func (e *MeshCacheEntry) markUploaded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasPending {
		return
	}
	e.uploadedVersion = e.pendingVersion
	e.uploadedLOD = e.pendingLOD
	e.hasUploaded = true
	e.pendingMesh = nil
	e.hasPending = false
}

// Cache is the ChunkPos-keyed mesh cache spec.md §4.8 describes: reads
// never block on a build, writes only ever come from mesh workers.
type Cache struct {
	mu      sync.RWMutex
	entries map[cube.ChunkPos]*MeshCacheEntry
}

// NewCache returns an empty mesh cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cube.ChunkPos]*MeshCacheEntry)}
}

// entry returns (creating if necessary) the cache entry for pos.
func (c *Cache) entry(pos cube.ChunkPos) *MeshCacheEntry {
	c.mu.RLock()
	e, ok := c.entries[pos]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[pos]; ok {
		return e
	}
	e = &MeshCacheEntry{}
	c.entries[pos] = e
	return e
}

// Peek returns the existing entry for pos without creating one.
func (c *Cache) Peek(pos cube.ChunkPos) (*MeshCacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[pos]
	return e, ok
}

// MarkUploaded promotes pos's pending mesh into its uploaded fields.
// No-op if pos has no entry or no pending mesh.
func (c *Cache) MarkUploaded(pos cube.ChunkPos) {
	if e, ok := c.Peek(pos); ok {
		e.markUploaded()
	}
}

// Remove drops pos's cache entry entirely, for subchunk unload.
func (c *Cache) Remove(pos cube.ChunkPos) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, pos)
}
