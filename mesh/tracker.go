package mesh

import (
	"sync"

	"github.com/finevox/voxelcore/cube"
)

// chunkTracker is the "parallel vector + index map" spec.md §4.8
// describes for background staleness scanning: track/untrack maintain
// membership, and touch moves an entry to the back of the rotation so
// repeated scans don't starve chunks near the front.
type chunkTracker struct {
	mu    sync.Mutex
	order []cube.ChunkPos
	index map[cube.ChunkPos]int
}

func newChunkTracker() *chunkTracker {
	return &chunkTracker{index: make(map[cube.ChunkPos]int)}
}

// track adds pos to the rotation if not already present.
func (t *chunkTracker) track(pos cube.ChunkPos) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.index[pos]; ok {
		return
	}
	t.index[pos] = len(t.order)
	t.order = append(t.order, pos)
}

// untrack removes pos from the rotation, if present.
func (t *chunkTracker) untrack(pos cube.ChunkPos) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[pos]
	if !ok {
		return
	}
	last := len(t.order) - 1
	t.order[i] = t.order[last]
	t.index[t.order[i]] = i
	t.order = t.order[:last]
	delete(t.index, pos)
}

// touch moves pos to the back of the rotation, if present.
func (t *chunkTracker) touch(pos cube.ChunkPos) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[pos]
	if !ok {
		return
	}
	last := len(t.order) - 1
	if i == last {
		return
	}
	t.order[i], t.order[last] = t.order[last], t.order[i]
	t.index[t.order[i]] = i
	t.index[t.order[last]] = last
}

// snapshot returns a copy of the current rotation order, oldest-first,
// for a caller to scan without holding the tracker's lock.
func (t *chunkTracker) snapshot() []cube.ChunkPos {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]cube.ChunkPos, len(t.order))
	copy(out, t.order)
	return out
}
