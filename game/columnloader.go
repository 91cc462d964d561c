package game

import (
	"log/slog"

	"github.com/finevox/voxelcore/colmgr"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/event"
	"github.com/finevox/voxelcore/light"
	"github.com/finevox/voxelcore/regionfile"
	"github.com/finevox/voxelcore/world"
)

// Generator is the capability collaborator spec.md §6 names: "a
// function (Column) -> () invoked on column creation by
// World::get_or_create_column". It is wired one level up, into the
// load-or-generate orchestration below, rather than into World itself:
// World takes no injected collaborators by design (spec.md §9: "the
// world does not own the light engine, update scheduler, or mesh queue
// -- they are injected as non-owning pointers"), and Generator is the
// same kind of non-owned collaborator as those.
type Generator func(col *world.Column)

// NewEvictionFunc builds the colmgr.EvictionFunc a Manager needs at
// construction time: once a column falls out of the LRU for good, this
// does a final guaranteed save and (if session is non-nil) announces
// ChunkUnloaded. Built standalone, ahead of ColumnLoader, so colmgr.
// Manager and ColumnLoader can each be constructed once without forming
// a cycle (Manager needs this at New time; ColumnLoader needs the
// resulting Manager).
func NewEvictionFunc(io *regionfile.IOManager, w *world.World, session *Session) colmgr.EvictionFunc {
	return func(pos cube.ColumnPos, col *world.Column) {
		io.QueueSave(col)
		w.RemoveColumn(pos)
		announceChunk(session, pos, event.ChunkUnloaded)
	}
}

// ColumnLoader resolves a column for a requested position, preferring a
// region-file load and falling back to generation on a miss, then hands
// the result to colmgr so its lifecycle bookkeeping takes over.
type ColumnLoader struct {
	world     *world.World
	colmgr    *colmgr.Manager
	io        *regionfile.IOManager
	generator Generator
	session   *Session
	log       *slog.Logger
}

// NewColumnLoader returns a ColumnLoader using an already-constructed
// colmgr.Manager (built with NewEvictionFunc's callback) and io for
// region-file access, falling back to gen when a position has nothing
// on disk.
func NewColumnLoader(w *world.World, cm *colmgr.Manager, io *regionfile.IOManager, gen Generator, session *Session, log *slog.Logger) *ColumnLoader {
	if log == nil {
		log = slog.Default()
	}
	return &ColumnLoader{world: w, colmgr: cm, io: io, generator: gen, session: session, log: log}
}

// Load resolves pos, blocking the calling goroutine on the IO manager's
// load result (region-file reads are a suspension point per spec.md §5;
// callers should invoke Load from a dedicated loader goroutine or the
// graphics thread's async prefetch path, never from the game thread
// itself). A cache hit in colmgr (Active or LRU) returns immediately
// without touching the IO manager at all.
func (l *ColumnLoader) Load(pos cube.ColumnPos) *world.Column {
	if col, ok := l.colmgr.Get(pos); ok {
		return col
	}

	res := <-l.io.RequestLoad(pos)
	var col *world.Column
	if res.OK {
		col = res.Column
		l.world.PutColumn(col)
		if !col.IsLightInitialized() {
			l.initLight(col)
		}
	} else {
		if res.Err != nil {
			l.log.Warn("columnloader: load failed, generating instead", "column", pos, "error", res.Err)
		}
		col = l.world.GetOrCreateColumn(pos)
		if l.generator != nil {
			l.generator(col)
		}
		l.initLight(col)
	}

	l.colmgr.Adopt(col)
	announceChunk(l.session, pos, event.ChunkLoaded)
	return col
}

// initLight runs the one-time sky+block light propagation spec.md §4.6
// describes for a freshly loaded or generated column ("a full
// recalculation is triggered on load").
func (l *ColumnLoader) initLight(col *world.Column) {
	if col.HeightmapDirty() {
		col.RecalculateHeightmap()
	}
	bottom, top, ok := col.YBounds()
	if !ok {
		col.MarkLightInitialized()
		return
	}
	light.PropagateSkyLightColumn(l.world, col.Position(), top, bottom)
	light.PropagateBlockLightColumn(l.world, col.Position(), top, bottom)
	col.MarkLightInitialized()
}

func announceChunk(session *Session, pos cube.ColumnPos, kind event.Kind) {
	if session == nil {
		return
	}
	session.PushEvent(event.BlockEvent{
		Kind:      kind,
		ChunkPos:  cube.ChunkPos{X: pos.X, Z: pos.Z},
		Timestamp: event.Now(),
	})
}
