package world

import (
	"sync"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/event"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/light"
)

// UpdateScheduler is the game thread's narrow surface as seen by World's
// external block API (spec.md §4.1: "it is a precondition that the
// world has been bound to an UpdateScheduler"). Submit enqueues cmd for
// the game thread to drain and apply; it returns false only once the
// scheduler has shut down.
type UpdateScheduler interface {
	Submit(cmd event.Command) bool
}

// World is the sparse, in-memory set of loaded Columns plus the
// force-loader registry that keeps specific columns resident regardless
// of player proximity (spawn chunks, active redstone-like machinery).
// Loading columns from and saving them to disk is the colmgr package's
// job; World only tracks what is currently in memory.
type World struct {
	mu      sync.RWMutex
	columns map[cube.ColumnPos]*Column

	// forceLoaders maps a registered anchor position to the chunk-space
	// Chebyshev radius it pins, per spec.md §4.1 ("register_force_loader
	// (pos, radius) adds pos → radius"). Several loaders may register at
	// different positions; CanUnloadChunk scans all of them.
	forceMu      sync.RWMutex
	forceLoaders map[cube.BlockPos]int32

	schedMu   sync.RWMutex
	scheduler UpdateScheduler
}

// New returns an empty World.
func New() *World {
	return &World{
		columns:      make(map[cube.ColumnPos]*Column),
		forceLoaders: make(map[cube.BlockPos]int32),
	}
}

// BindScheduler attaches the game thread's UpdateScheduler, enabling the
// external block API. Passing nil unbinds it, reverting to the
// PreconditionFailed behaviour described in spec.md §7.
func (w *World) BindScheduler(s UpdateScheduler) {
	w.schedMu.Lock()
	w.scheduler = s
	w.schedMu.Unlock()
}

func (w *World) submit(cmd event.Command) bool {
	w.schedMu.RLock()
	s := w.scheduler
	w.schedMu.RUnlock()
	if s == nil {
		return false
	}
	return s.Submit(cmd)
}

// PlaceBlock is the external API's placement entry point: it enqueues a
// place command for the game thread and returns immediately. It never
// mutates the world directly (spec.md §4.1).
func (w *World) PlaceBlock(pos cube.BlockPos, id intern.BlockTypeID, rot cube.Rotation) bool {
	return w.submit(event.Command{Kind: event.CmdPlace, Pos: pos, BlockType: id, Rotation: rot})
}

// BreakBlock is the external API's break entry point.
func (w *World) BreakBlock(pos cube.BlockPos) bool {
	return w.submit(event.Command{Kind: event.CmdBreak, Pos: pos})
}

// UseBlock enqueues a player-use interaction at pos against face.
func (w *World) UseBlock(pos cube.BlockPos, face cube.Face) bool {
	return w.submit(event.Command{Kind: event.CmdUse, Pos: pos, Face: face})
}

// HitBlock enqueues a player-hit interaction at pos against face.
func (w *World) HitBlock(pos cube.BlockPos, face cube.Face) bool {
	return w.submit(event.Command{Kind: event.CmdHit, Pos: pos, Face: face})
}

// PlaceBlocksBulk enqueues a single bulk-placement command covering every
// (positions[i], types[i]) pair, for callers (worldedit-style tools,
// schematic paste) that want one coalesced outbox entry per position
// rather than one command per block.
func (w *World) PlaceBlocksBulk(positions []cube.BlockPos, types []intern.BlockTypeID) bool {
	return w.submit(event.Command{Kind: event.CmdBulkPlace, Positions: positions, Types: types})
}

// Column returns the loaded column at pos, if any.
func (w *World) Column(pos cube.ColumnPos) (*Column, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.columns[pos]
	return c, ok
}

// GetOrCreateColumn returns the loaded column at pos, creating an empty
// one if none is resident. Callers that need disk-backed columns should
// go through colmgr, which calls this only after a region-file read (or
// world-generation) miss confirms there is nothing to load.
func (w *World) GetOrCreateColumn(pos cube.ColumnPos) *Column {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.columns[pos]
	if ok {
		return c
	}
	c = NewColumn(pos)
	w.columns[pos] = c
	return c
}

// PutColumn installs an already-constructed column (e.g. one just
// deserialized from a region file) into the world.
func (w *World) PutColumn(c *Column) {
	w.mu.Lock()
	w.columns[c.Position()] = c
	w.mu.Unlock()
}

// RemoveColumn evicts pos from memory. Callers are responsible for
// having already saved it if needed.
func (w *World) RemoveColumn(pos cube.ColumnPos) {
	w.mu.Lock()
	delete(w.columns, pos)
	w.mu.Unlock()
}

// LoadedColumns returns a snapshot of every currently resident column
// position.
func (w *World) LoadedColumns() []cube.ColumnPos {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]cube.ColumnPos, 0, len(w.columns))
	for pos := range w.columns {
		out = append(out, pos)
	}
	return out
}

// Block returns the block type at pos, or air if its column isn't
// loaded.
func (w *World) Block(pos cube.BlockPos) intern.BlockTypeID {
	colPos := pos.Column()
	c, ok := w.Column(colPos)
	if !ok {
		return intern.AirBlockType
	}
	lx, _, lz := pos.Local()
	return c.Block(int32(lx), pos.Y, int32(lz))
}

// SetBlock sets the block type at pos, creating the column (but not
// generating terrain; that is a caller concern) if it is not yet
// loaded.
func (w *World) SetBlock(pos cube.BlockPos, id intern.BlockTypeID) {
	c := w.GetOrCreateColumn(pos.Column())
	lx, _, lz := pos.Local()
	c.SetBlock(int32(lx), pos.Y, int32(lz), id)
}

// AffectedSubChunks returns the set of ChunkPos whose subchunk could
// need a mesh rebuild after a write at pos: the subchunk the block
// itself lives in, plus any horizontally- or vertically-adjacent
// subchunk the write sits on the boundary of (since greedy meshing
// looks at cross-subchunk neighbours for face culling).
func AffectedSubChunks(pos cube.BlockPos) []cube.ChunkPos {
	chunkPos := pos.Chunk()
	lx, ly, lz := pos.Local()
	out := []cube.ChunkPos{chunkPos}
	if lx == 0 {
		out = append(out, cube.ChunkPos{X: chunkPos.X - 1, Y: chunkPos.Y, Z: chunkPos.Z})
	}
	if lx == 15 {
		out = append(out, cube.ChunkPos{X: chunkPos.X + 1, Y: chunkPos.Y, Z: chunkPos.Z})
	}
	if ly == 0 {
		out = append(out, cube.ChunkPos{X: chunkPos.X, Y: chunkPos.Y - 1, Z: chunkPos.Z})
	}
	if ly == 15 {
		out = append(out, cube.ChunkPos{X: chunkPos.X, Y: chunkPos.Y + 1, Z: chunkPos.Z})
	}
	if lz == 0 {
		out = append(out, cube.ChunkPos{X: chunkPos.X, Y: chunkPos.Y, Z: chunkPos.Z - 1})
	}
	if lz == 15 {
		out = append(out, cube.ChunkPos{X: chunkPos.X, Y: chunkPos.Y, Z: chunkPos.Z + 1})
	}
	return out
}

// RegisterForceLoader pins every chunk within radius chunks (Chebyshev
// distance) of pos against unload, per spec.md §4.1. Registering the
// same pos again replaces its radius rather than stacking a second
// independent entry, matching the map-keyed-by-position layout spec.md
// §3 describes ("a mapping BlockPos → radius").
func (w *World) RegisterForceLoader(pos cube.BlockPos, radius int32) {
	w.forceMu.Lock()
	w.forceLoaders[pos] = radius
	w.forceMu.Unlock()
}

// UnregisterForceLoader removes pos's force-loader entry entirely.
func (w *World) UnregisterForceLoader(pos cube.BlockPos) {
	w.forceMu.Lock()
	delete(w.forceLoaders, pos)
	w.forceMu.Unlock()
}

// CanUnloadChunk reports whether chunkPos is free of any force-loader
// pin: true unless some registered (pos, radius) places chunkPos within
// Chebyshev radius of pos's own chunk.
func (w *World) CanUnloadChunk(chunkPos cube.ChunkPos) bool {
	w.forceMu.RLock()
	defer w.forceMu.RUnlock()
	for pos, radius := range w.forceLoaders {
		anchor := pos.Chunk()
		if anchor.Chebyshev(chunkPos) <= radius {
			return false
		}
	}
	return true
}

// CanUnloadColumn reports whether every subchunk Y in colPos is free of
// a force-loader pin, by checking the column's own horizontal position
// (Y is irrelevant to the planar force-loader scan, but ChunkPos.Chebyshev
// also compares Y; colmgr only ever has a ColumnPos to test against, so
// this treats the column as pinned if any force-loader's horizontal
// projection reaches it, independent of subchunk Y).
func (w *World) CanUnloadColumn(colPos cube.ColumnPos) bool {
	w.forceMu.RLock()
	defer w.forceMu.RUnlock()
	for pos, radius := range w.forceLoaders {
		anchor := pos.Column()
		if anchor.Chebyshev(colPos) <= radius {
			return false
		}
	}
	return true
}

// BlockTypeAt implements light.BlockSource.
func (w *World) BlockTypeAt(pos cube.BlockPos) intern.BlockTypeID { return w.Block(pos) }

// LightDataAt implements light.BlockSource: it returns the light data
// for the subchunk containing chunkPos, creating the subchunk (and its
// light data) if the column is loaded but that subchunk is not yet
// allocated. It returns false only if the column itself isn't loaded.
func (w *World) LightDataAt(chunkPos cube.ChunkPos) (*light.Data, bool) {
	c, ok := w.Column(chunkPos.Column())
	if !ok {
		return nil, false
	}
	return c.GetOrCreateLightData(chunkPos.Y), true
}

// HeightAt implements light.BlockSource.
func (w *World) HeightAt(colPos cube.ColumnPos, localX, localZ int32) int32 {
	c, ok := w.Column(colPos)
	if !ok {
		return MinHeight
	}
	return c.Height(localX, localZ)
}
