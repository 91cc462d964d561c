package light

import (
	"log/slog"
	"sync"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/queue"
)

// LightingUpdate is one pending re-propagation request, queued by the
// game thread whenever a block change could affect lighting (spec.md
// §4.6: "The game thread enqueues LightingUpdate{pos, old_type,
// new_type} items").
type LightingUpdate struct {
	Pos     cube.BlockPos
	OldType intern.BlockTypeID
	NewType intern.BlockTypeID
}

// DirtyFunc is called by the worker once a batch of updates has finished
// propagating, naming every subchunk whose lighting changed so the
// caller can enqueue mesh rebuilds. It never runs concurrently with
// itself.
type DirtyFunc func(affected []cube.ChunkPos)

// Worker is the dedicated lighting thread spec.md §5's thread table
// describes: it owns LightData and heightmap mutation during
// propagation, blocked on its own queue's wake signal exactly like the
// IO loader/saver threads in regionfile.
type Worker struct {
	src     BlockSource
	queue   *queue.Queue[LightingUpdate]
	onDirty DirtyFunc
	log     *slog.Logger

	wg      sync.WaitGroup
	started bool
}

// NewWorker returns a Worker that reads/writes lighting through src and
// calls onDirty (if non-nil) after each drained batch finishes.
func NewWorker(src BlockSource, onDirty DirtyFunc, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{src: src, queue: queue.New[LightingUpdate](), onDirty: onDirty, log: log}
}

// Enqueue queues u for propagation and reports whether the lighting
// queue was empty immediately before this push. Per the mesh-rebuild
// deferral policy (spec.md §4.6): when this returns true, the caller
// should NOT push a mesh rebuild itself — the worker will do so once
// propagation for this item completes, avoiding a mesh built from
// pre-propagation light. When it returns false, the lighting queue was
// already backed up, so the caller pushes its own mesh-rebuild request
// immediately and lets the worker batch lighting work freely.
func (w *Worker) Enqueue(u LightingUpdate) (wasEmpty bool) {
	wasEmpty = w.queue.Len() == 0
	w.queue.Push(u)
	return wasEmpty
}

// Start launches the worker goroutine. Calling it more than once panics,
// matching the single-start contract the rest of the pack's worker
// loops assume.
func (w *Worker) Start() {
	if w.started {
		panic("light: Worker.Start called twice")
	}
	w.started = true
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()
	for w.queue.WaitForWork() {
		updates := w.queue.DrainAll()
		if len(updates) == 0 {
			continue
		}

		affected := make(map[cube.ChunkPos]struct{}, len(updates)*4)
		for _, u := range updates {
			UpdateAfterBlockChange(w.src, u.Pos)
			affected[u.Pos.Chunk()] = struct{}{}
			for _, face := range cube.Faces {
				affected[u.Pos.Neighbour(face).Chunk()] = struct{}{}
			}
		}

		if w.onDirty == nil {
			continue
		}
		out := make([]cube.ChunkPos, 0, len(affected))
		for cp := range affected {
			out = append(out, cp)
		}
		w.onDirty(out)
	}
}

// Pending returns the number of lighting updates not yet processed.
func (w *Worker) Pending() int { return w.queue.Len() }

// Stop shuts the worker's queue down and waits for the goroutine to
// exit, a two-phase stop matching spec.md §5's "request_stop then join"
// pattern for the rest of the thread pool.
func (w *Worker) Stop() {
	w.queue.Shutdown()
	w.wg.Wait()
}
