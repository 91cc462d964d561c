// Package world manages the sparse, vertically-unbounded grid of
// SubChunks that make up the loaded play area: Column (one (X,Z) stack
// of subchunks, its heightmap, and its per-column metadata) and World
// (the map of loaded Columns plus force-loader bookkeeping).
package world

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/finevox/voxelcore/blocktype"
	"github.com/finevox/voxelcore/chunk"
	"github.com/finevox/voxelcore/container"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/light"
)

// MinHeight is the heightmap's "no blocker found" sentinel, matching the
// lowest representable block Y.
const MinHeight int32 = -2048

// Column is a vertical stack of SubChunks at one (X, Z) position, plus
// the bookkeeping that applies to the whole stack: a sky-light
// heightmap, a light-initialized flag, column-level metadata, and an
// activity timer protecting it from mid-update unload.
type Column struct {
	pos cube.ColumnPos

	mu         sync.RWMutex
	subChunks  map[int32]*chunk.SubChunk
	lightData  map[int32]*light.Data
	heightmap  [256]int32
	hmDirty    bool
	lightInit  bool
	data       *container.DataContainer

	lastActiveNano atomic.Int64
}

// NewColumn returns an empty Column at pos with its heightmap cleared to
// MinHeight (no sky-blocking block anywhere yet).
func NewColumn(pos cube.ColumnPos) *Column {
	c := &Column{
		pos:       pos,
		subChunks: make(map[int32]*chunk.SubChunk),
		lightData: make(map[int32]*light.Data),
	}
	for i := range c.heightmap {
		c.heightmap[i] = MinHeight
	}
	c.Touch()
	return c
}

// Position returns the column's (X, Z) position.
func (c *Column) Position() cube.ColumnPos { return c.pos }

// WorldYToChunkY converts a block Y coordinate to its subchunk Y.
func WorldYToChunkY(blockY int32) int32 {
	// Arithmetic right shift: correct for negative Y, same as C.
	return blockY >> 4
}

// WorldYToLocalY converts a block Y coordinate to its local Y (0-15)
// within a subchunk.
func WorldYToLocalY(blockY int32) int32 { return blockY & 0xF }

// SubChunk returns the subchunk at chunkY, if one is allocated.
func (c *Column) SubChunk(chunkY int32) (*chunk.SubChunk, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.subChunks[chunkY]
	return s, ok
}

// GetOrCreateSubChunk returns the subchunk at chunkY, allocating an
// empty one (and its matching light.Data) if none exists yet.
func (c *Column) GetOrCreateSubChunk(chunkY int32) *chunk.SubChunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.subChunks[chunkY]
	if ok {
		return s
	}
	s = chunk.NewSubChunk()
	c.subChunks[chunkY] = s
	c.lightData[chunkY] = light.NewData()
	return s
}

// LightData returns the light data for chunkY, if its subchunk exists.
func (c *Column) LightData(chunkY int32) (*light.Data, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.lightData[chunkY]
	return d, ok
}

// GetOrCreateLightData returns the light data for chunkY, allocating its
// subchunk if needed.
func (c *Column) GetOrCreateLightData(chunkY int32) *light.Data {
	c.GetOrCreateSubChunk(chunkY)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lightData[chunkY]
}

// Block returns the block type at a block position within this column.
// X/Z are local (0-15, as from BlockPos.Local()); they are not
// validated.
func (c *Column) Block(localX, blockY, localZ int32) intern.BlockTypeID {
	chunkY := WorldYToChunkY(blockY)
	s, ok := c.SubChunk(chunkY)
	if !ok {
		return intern.AirBlockType
	}
	return s.Block(localX, WorldYToLocalY(blockY), localZ)
}

// SetBlock sets the block type at local X/Z and world Y, creating the
// target subchunk if needed and pruning it if the write left it empty.
// It updates the heightmap but does not touch lighting; callers that
// need lighting kept in sync should use the game package's dispatch,
// which calls both.
func (c *Column) SetBlock(localX, blockY, localZ int32, id intern.BlockTypeID) {
	chunkY := WorldYToChunkY(blockY)
	s := c.GetOrCreateSubChunk(chunkY)
	s.SetBlock(localX, WorldYToLocalY(blockY), localZ, id)

	props, _ := blocktype.Global().Get(id)
	blocksSky := props != nil && props.BlocksSkyLight
	c.updateHeight(localX, localZ, blockY, blocksSky)

	if s.IsEmpty() {
		c.mu.Lock()
		delete(c.subChunks, chunkY)
		delete(c.lightData, chunkY)
		c.mu.Unlock()
	}
}

// HasSubChunk reports whether a subchunk is allocated at chunkY.
func (c *Column) HasSubChunk(chunkY int32) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subChunks[chunkY]
	return ok
}

// SubChunkCount returns the number of allocated subchunks.
func (c *Column) SubChunkCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subChunks)
}

// IsEmpty reports whether the column has no allocated subchunks.
func (c *Column) IsEmpty() bool { return c.SubChunkCount() == 0 }

// NonAirCount sums non-air blocks across every allocated subchunk.
func (c *Column) NonAirCount() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, s := range c.subChunks {
		total += int64(s.NonAirCount())
	}
	return total
}

// ForEachSubChunk calls fn once per allocated subchunk. Iteration order
// is unspecified.
func (c *Column) ForEachSubChunk(fn func(chunkY int32, s *chunk.SubChunk)) {
	c.mu.RLock()
	snapshot := make(map[int32]*chunk.SubChunk, len(c.subChunks))
	for k, v := range c.subChunks {
		snapshot[k] = v
	}
	c.mu.RUnlock()
	for chunkY, s := range snapshot {
		fn(chunkY, s)
	}
}

// PruneEmptySubChunks removes any allocated subchunk that has become
// all-air, e.g. after a sequence of block removals that each left it
// momentarily non-empty. SetBlock already does this for the single
// subchunk it touches; this is for periodic sweeps.
func (c *Column) PruneEmptySubChunks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for chunkY, s := range c.subChunks {
		if s.IsEmpty() {
			delete(c.subChunks, chunkY)
			delete(c.lightData, chunkY)
		}
	}
}

// CompactAll compacts the palette of every allocated subchunk, e.g.
// before serializing the column to a region file.
func (c *Column) CompactAll() {
	c.ForEachSubChunk(func(_ int32, s *chunk.SubChunk) {
		if s.NeedsCompaction() {
			s.CompactPalette()
		}
	})
}

// YBounds returns the lowest and highest chunkY with an allocated
// subchunk, and false if the column is empty.
func (c *Column) YBounds() (min, max int32, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	first := true
	for chunkY := range c.subChunks {
		if first {
			min, max = chunkY, chunkY
			first = false
			continue
		}
		if chunkY < min {
			min = chunkY
		}
		if chunkY > max {
			max = chunkY
		}
	}
	return min, max, !first
}

// Height returns the heightmap entry (Y of the highest sky-blocking
// block, plus one) at local coordinates.
func (c *Column) Height(localX, localZ int32) int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.heightmap[localZ*16+localX]
}

// updateHeight incrementally maintains the heightmap after a single
// block write. A newly placed sky-blocking block can only ever raise
// the column's height at that X/Z; removing the current top blocker
// requires scanning downward for the next one, so that case is handled
// by RecalculateHeightmap in the caller (we mark the column dirty instead
// of paying for a full column scan on every single removal).
func (c *Column) updateHeight(localX, localZ, blockY int32, blocksSkyLight bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := localZ*16 + localX
	current := c.heightmap[idx]

	if blocksSkyLight {
		if blockY+1 > current {
			c.heightmap[idx] = blockY + 1
		}
		return
	}
	if blockY+1 == current {
		c.hmDirty = true
	}
}

// RecalculateHeightmap rebuilds the entire heightmap from block data,
// scanning each of the 256 columns from the top of its loaded range
// downward. Callers run this after a load or after updateHeight has set
// hmDirty.
func (c *Column) RecalculateHeightmap() {
	c.mu.Lock()
	subChunks := make(map[int32]*chunk.SubChunk, len(c.subChunks))
	for k, v := range c.subChunks {
		subChunks[k] = v
	}
	c.mu.Unlock()

	if len(subChunks) == 0 {
		c.mu.Lock()
		for i := range c.heightmap {
			c.heightmap[i] = MinHeight
		}
		c.hmDirty = false
		c.mu.Unlock()
		return
	}

	topChunkY, bottomChunkY := minMaxChunkY(subChunks)

	newHeightmap := [256]int32{}
	for i := range newHeightmap {
		newHeightmap[i] = MinHeight
	}
	for localX := int32(0); localX < 16; localX++ {
		for localZ := int32(0); localZ < 16; localZ++ {
			found := MinHeight
		scan:
			for chunkY := topChunkY; chunkY >= bottomChunkY; chunkY-- {
				s, ok := subChunks[chunkY]
				if !ok {
					continue
				}
				for localY := int32(15); localY >= 0; localY-- {
					id := s.Block(localX, localY, localZ)
					props, _ := blocktype.Global().Get(id)
					if props != nil && props.BlocksSkyLight {
						found = chunkY*16 + localY + 1
						break scan
					}
				}
			}
			newHeightmap[localZ*16+localX] = found
		}
	}

	c.mu.Lock()
	c.heightmap = newHeightmap
	c.hmDirty = false
	c.mu.Unlock()
}

func minMaxChunkY(subChunks map[int32]*chunk.SubChunk) (top, bottom int32) {
	first := true
	for chunkY := range subChunks {
		if first {
			top, bottom = chunkY, chunkY
			first = false
			continue
		}
		if chunkY > top {
			top = chunkY
		}
		if chunkY < bottom {
			bottom = chunkY
		}
	}
	return top, bottom
}

// HeightmapDirty reports whether RecalculateHeightmap should be run
// before the heightmap is trusted.
func (c *Column) HeightmapDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hmDirty
}

// MarkHeightmapDirty forces the next consumer to recalculate.
func (c *Column) MarkHeightmapDirty() {
	c.mu.Lock()
	c.hmDirty = true
	c.mu.Unlock()
}

// HeightmapData returns a copy of the raw 256-entry heightmap, for
// serialization.
func (c *Column) HeightmapData() [256]int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.heightmap
}

// SetHeightmapData installs a heightmap loaded from disk.
func (c *Column) SetHeightmapData(data [256]int32) {
	c.mu.Lock()
	c.heightmap = data
	c.mu.Unlock()
}

// IsLightInitialized reports whether sky light has been computed for
// this column since it was loaded.
func (c *Column) IsLightInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lightInit
}

// MarkLightInitialized records that sky light propagation has run.
func (c *Column) MarkLightInitialized() {
	c.mu.Lock()
	c.lightInit = true
	c.mu.Unlock()
}

// ResetLightInitialized forces re-propagation, e.g. after terrain
// generation overwrote a large region.
func (c *Column) ResetLightInitialized() {
	c.mu.Lock()
	c.lightInit = false
	c.mu.Unlock()
}

// Data returns the column's metadata container, or nil if none has been
// created.
func (c *Column) Data() *container.DataContainer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// GetOrCreateData returns the column's metadata container, allocating
// one if needed.
func (c *Column) GetOrCreateData() *container.DataContainer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = container.New()
	}
	return c.data
}

// HasData reports whether column-level metadata has been created.
func (c *Column) HasData() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data != nil
}

// RemoveData discards the column's metadata container.
func (c *Column) RemoveData() {
	c.mu.Lock()
	c.data = nil
	c.mu.Unlock()
}

// Touch resets the activity timer to now, protecting the column from
// unload for its configured grace period.
func (c *Column) Touch() {
	c.lastActiveNano.Store(time.Now().UnixNano())
}

// LastActive returns the time Touch was last called.
func (c *Column) LastActive() time.Time {
	return time.Unix(0, c.lastActiveNano.Load())
}
