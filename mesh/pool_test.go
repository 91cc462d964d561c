package mesh_test

import (
	"sync"
	"testing"
	"time"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/mesh"
)

// fakeSubchunkSource is a minimal in-memory stand-in for world state,
// giving each tracked ChunkPos a mutable version pair and a trivially
// solid BuildInput.
type fakeSubchunkSource struct {
	mu       sync.Mutex
	versions map[cube.ChunkPos]mesh.VersionPair
	loaded   map[cube.ChunkPos]bool
}

func newFakeSubchunkSource() *fakeSubchunkSource {
	return &fakeSubchunkSource{
		versions: make(map[cube.ChunkPos]mesh.VersionPair),
		loaded:   make(map[cube.ChunkPos]bool),
	}
}

func (f *fakeSubchunkSource) load(pos cube.ChunkPos) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded[pos] = true
	f.versions[pos] = mesh.VersionPair{Block: 1, Light: 1}
}

func (f *fakeSubchunkSource) bumpBlockVersion(pos cube.ChunkPos) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.versions[pos]
	v.Block++
	f.versions[pos] = v
}

func (f *fakeSubchunkSource) Versions(pos cube.ChunkPos) (mesh.VersionPair, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[pos]
	return v, ok
}

func (f *fakeSubchunkSource) BuildInput(pos cube.ChunkPos) (mesh.BuildInput, bool) {
	f.mu.Lock()
	ok := f.loaded[pos]
	f.mu.Unlock()
	if !ok {
		return mesh.BuildInput{}, false
	}
	return mesh.BuildInput{
		ChunkPos: pos,
		BlockAt: func(p cube.BlockPos) intern.BlockTypeID {
			if p.Y == 0 {
				return intern.BlockTypeID(1)
			}
			return intern.AirBlockType
		},
		OpaqueAt:  func(p cube.BlockPos) bool { return p.Y <= 0 },
		LightAt:   func(p cube.BlockPos) uint8 { return 0xFF },
		TextureOf: func(id intern.BlockTypeID, face cube.Face) mesh.UVRect { return mesh.UVRect{U1: 1, V1: 1} },
	}, true
}

func TestPoolGetMeshTriggersRebuildOnFirstRequest(t *testing.T) {
	src := newFakeSubchunkSource()
	pos := cube.ChunkPos{X: 0, Y: 0, Z: 0}
	src.load(pos)

	cache := mesh.NewCache()
	pool := mesh.NewPool(2, cache, src.Versions, src.BuildInput, nil, nil)
	pool.Track(pos)
	pool.Start()
	defer pool.Stop()

	_, triggered := pool.GetMesh(pos, 0)
	if !triggered {
		t.Fatalf("expected first GetMesh call to trigger a rebuild")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		entry, _ := cache.Peek(pos)
		if entry != nil {
			if m, ok := entry.PendingMesh(); ok && m != nil {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for worker to build a pending mesh")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPoolGetMeshNotStaleAfterUpload(t *testing.T) {
	src := newFakeSubchunkSource()
	pos := cube.ChunkPos{X: 1, Y: 0, Z: 1}
	src.load(pos)

	cache := mesh.NewCache()
	pool := mesh.NewPool(1, cache, src.Versions, src.BuildInput, nil, nil)
	pool.Track(pos)
	pool.Start()
	defer pool.Stop()

	pool.GetMesh(pos, 0)
	deadline := time.Now().Add(2 * time.Second)
	for {
		entry, ok := cache.Peek(pos)
		if ok {
			if m, pending := entry.PendingMesh(); pending && m != nil {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for initial build")
		}
		time.Sleep(time.Millisecond)
	}
	pool.MarkUploaded(pos)

	_, triggered := pool.GetMesh(pos, 0)
	if triggered {
		t.Fatalf("expected GetMesh to report no rebuild needed once uploaded and versions unchanged")
	}
}

func TestPoolGetMeshRetriggersAfterBlockVersionBump(t *testing.T) {
	src := newFakeSubchunkSource()
	pos := cube.ChunkPos{X: 2, Y: 0, Z: 2}
	src.load(pos)

	cache := mesh.NewCache()
	pool := mesh.NewPool(1, cache, src.Versions, src.BuildInput, nil, nil)
	pool.Track(pos)
	pool.Start()
	defer pool.Stop()

	pool.GetMesh(pos, 0)
	deadline := time.Now().Add(2 * time.Second)
	for {
		entry, ok := cache.Peek(pos)
		if ok {
			if m, pending := entry.PendingMesh(); pending && m != nil {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for initial build")
		}
		time.Sleep(time.Millisecond)
	}
	pool.MarkUploaded(pos)

	src.bumpBlockVersion(pos)
	_, triggered := pool.GetMesh(pos, 0)
	if !triggered {
		t.Fatalf("expected a block version bump to retrigger a rebuild")
	}
}

func TestPoolUntrackRemovesCacheEntry(t *testing.T) {
	src := newFakeSubchunkSource()
	pos := cube.ChunkPos{X: 3, Y: 0, Z: 3}
	src.load(pos)

	cache := mesh.NewCache()
	pool := mesh.NewPool(1, cache, src.Versions, src.BuildInput, nil, nil)
	pool.Track(pos)
	pool.GetMesh(pos, 0)

	pool.Untrack(pos)
	if _, ok := cache.Peek(pos); ok {
		t.Fatalf("expected Untrack to remove the cache entry")
	}
}
